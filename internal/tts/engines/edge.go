package engines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/go-mp3"
	"github.com/wujunwei928/edge-tts-go/edge_tts"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// EdgeConfig configures the Microsoft Edge read-aloud engine.
type EdgeConfig struct {
	// Voice is an Edge neural voice such as "en-US-AriaNeural". When empty
	// a voice matching the narrator's language and gender is chosen.
	Voice             string
	RequestsPerMinute int
}

// edgeVoices maps a Kokoro language and gender onto an Edge voice.
var edgeVoices = map[string][2]string{
	"en-us": {"en-US-GuyNeural", "en-US-AriaNeural"},
	"en-gb": {"en-GB-RyanNeural", "en-GB-SoniaNeural"},
	"es":    {"es-ES-AlvaroNeural", "es-ES-ElviraNeural"},
	"fr-fr": {"fr-FR-HenriNeural", "fr-FR-DeniseNeural"},
	"hi":    {"hi-IN-MadhurNeural", "hi-IN-SwaraNeural"},
	"it":    {"it-IT-DiegoNeural", "it-IT-ElsaNeural"},
	"ja":    {"ja-JP-KeitaNeural", "ja-JP-NanamiNeural"},
	"pt-br": {"pt-BR-AntonioNeural", "pt-BR-FranciscaNeural"},
	"cmn":   {"zh-CN-YunxiNeural", "zh-CN-XiaoxiaoNeural"},
}

// EdgeEngine synthesizes through the Edge read-aloud service. It returns MP3
// which is decoded, down-mixed and resampled here.
type EdgeEngine struct {
	voice   string
	limiter *rate.Limiter
	logger  *log.Logger

	// output performs the network call; replaced in tests.
	output func(voice, pace, text string) ([]byte, error)
}

// NewEdgeEngine creates the engine. No connection is made until the first
// request.
func NewEdgeEngine(cfg EdgeConfig, logger *log.Logger) *EdgeEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &EdgeEngine{
		voice:   cfg.Voice,
		limiter: newLimiter(cfg.RequestsPerMinute),
		logger:  logger.WithPrefix("edge"),
		output:  edgeOutput,
	}
}

func edgeOutput(voice, pace, text string) ([]byte, error) {
	c, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(voice), edge_tts.SetRate(pace))
	if err != nil {
		return nil, err
	}
	return c.Stream()
}

// edgeRate expresses speed as the service's relative rate, "+30%" for 1.3.
func edgeRate(speed float64) string {
	if speed == 0 {
		speed = 1
	}
	return fmt.Sprintf("%+d%%", int(math.Round((speed-1)*100)))
}

func (e *EdgeEngine) edgeVoice(narrator string) string {
	if e.voice != "" {
		return e.voice
	}
	v, err := tts.ParseVoice(narrator)
	if err != nil {
		return edgeVoices["en-us"][1]
	}
	pair := edgeVoices[v.Language]
	if v.Female {
		return pair[1]
	}
	return pair[0]
}

func (e *EdgeEngine) Synthesize(ctx context.Context, req tts.Request) ([]tts.Segment, error) {
	if req.Text == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "text cannot be empty", nil)
	}
	if err := wait(ctx, e.limiter); err != nil {
		return nil, err
	}
	voice := e.edgeVoice(req.Voice)
	pace := edgeRate(req.Speed)
	e.logger.Debug("Requesting speech", "voice", voice, "rate", pace)
	data, err := e.output(voice, pace, req.Text)
	if ctx.Err() != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeCanceled, "synthesis canceled", ctx.Err())
	}
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "edge synthesis failed", err).
			WithContext("voice", voice).WithContext("rate", pace)
	}
	samples, err := decodeMP3(data)
	if err != nil {
		return nil, err
	}
	return []tts.Segment{{Graphemes: req.Text, Samples: samples}}, nil
}

// decodeMP3 returns data as 24 kHz mono samples.
func decodeMP3(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "empty mp3 stream", nil)
	}
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "invalid mp3 stream", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "decoding mp3", err)
	}
	// go-mp3 always emits interleaved 16-bit stereo.
	samples := audio.Downmix(audio.DecodePCM16LE(pcm), 2)
	return audio.Resample(samples, d.SampleRate(), audio.SampleRate), nil
}

func (e *EdgeEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EngineEdge),
		Version:    e.voice,
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		IsOnline:   true,
	}
}

func (e *EdgeEngine) Close() error { return nil }

var _ tts.Synthesizer = (*EdgeEngine)(nil)
