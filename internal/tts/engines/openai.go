package engines

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// OpenAIConfig configures the OpenAI speech endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Voice is used when the requested narrator has no OpenAI equivalent.
	Voice string
	// RequestsPerMinute throttles calls; 0 disables the limiter.
	RequestsPerMinute int
}

// openAIMaxInput is the endpoint's input limit in characters.
const openAIMaxInput = 4096

var openAIVoices = map[string]bool{
	"alloy": true, "ash": true, "ballad": true, "coral": true, "echo": true,
	"fable": true, "onyx": true, "nova": true, "sage": true, "shimmer": true,
}

// OpenAIEngine synthesizes through the OpenAI audio API. The PCM response
// format is already 24 kHz 16-bit mono.
type OpenAIEngine struct {
	client  *openai.Client
	model   openai.SpeechModel
	voice   string
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewOpenAIEngine creates the client. An empty API key is an error.
func NewOpenAIEngine(cfg OpenAIConfig, logger *log.Logger) (*OpenAIEngine, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.APIKey == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineUnavailable, "OPENAI_API_KEY is not set", nil)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	return &OpenAIEngine{
		client:  openai.NewClientWithConfig(oc),
		model:   openai.SpeechModel(cfg.Model),
		voice:   cfg.Voice,
		limiter: newLimiter(cfg.RequestsPerMinute),
		logger:  logger.WithPrefix("openai"),
	}, nil
}

// speechVoice maps a narrator such as "af_alloy" onto an OpenAI voice.
func (e *OpenAIEngine) speechVoice(voice string) openai.SpeechVoice {
	name := strings.ToLower(voice)
	if i := strings.IndexByte(name, '_'); i >= 0 {
		name = name[i+1:]
	}
	if openAIVoices[name] {
		return openai.SpeechVoice(name)
	}
	return openai.SpeechVoice(e.voice)
}

func (e *OpenAIEngine) Synthesize(ctx context.Context, req tts.Request) ([]tts.Segment, error) {
	if req.Text == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "text cannot be empty", nil)
	}
	if len([]rune(req.Text)) > openAIMaxInput {
		return nil, tts.NewTTSError(tts.ErrorCodeTextTooLong, "text exceeds OpenAI input limit", nil).
			WithContext("limit", openAIMaxInput)
	}
	if err := wait(ctx, e.limiter); err != nil {
		return nil, err
	}

	resp, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          e.model,
		Input:          req.Text,
		Voice:          e.speechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, classifyAPIError(err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "reading speech response", err)
	}
	return []tts.Segment{{Graphemes: req.Text, Samples: audio.DecodePCM16LE(pcm)}}, nil
}

func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	code := tts.ErrorCodeEngineFailure
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests,
		errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests:
		code = tts.ErrorCodeRateLimited
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized,
		errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusUnauthorized:
		code = tts.ErrorCodeEngineUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = tts.ErrorCodeEngineTimeout
	case errors.Is(err, context.Canceled):
		code = tts.ErrorCodeCanceled
	}
	return tts.NewTTSError(code, "speech request failed", err)
}

func (e *OpenAIEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:        string(tts.EngineOpenAI),
		Version:     string(e.model),
		SampleRate:  audio.SampleRate,
		Channels:    audio.Channels,
		BitDepth:    audio.BitDepth,
		MaxTextSize: openAIMaxInput,
		IsOnline:    true,
	}
}

func (e *OpenAIEngine) Close() error { return nil }

var _ tts.Synthesizer = (*OpenAIEngine)(nil)
