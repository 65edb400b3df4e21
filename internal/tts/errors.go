package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrNoEngineConfigured indicates no TTS engine has been selected
	ErrNoEngineConfigured = errors.New("no TTS engine configured")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")

	// ErrEngineNotAvailable indicates the selected engine is not available
	ErrEngineNotAvailable = errors.New("selected TTS engine is not available")

	// ErrSynthesisFailed indicates a chunk could not be turned into audio
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrUnknownVoice indicates the voice is not in the catalog
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrUnknownDevice indicates an unsupported compute device name
	ErrUnknownDevice = errors.New("unknown device")
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Engine errors
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	// Audio errors
	ErrorCodeAudioFormat ErrorCode = "AUDIO_FORMAT"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorCodeTextTooLong  ErrorCode = "TEXT_TOO_LONG"

	// System errors
	ErrorCodeCanceled          ErrorCode = "CANCELED"
	ErrorCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value any) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the error should stop the whole run
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeEngineUnavailable,
		ErrorCodeResourceExhausted:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeEngineTimeout,
		ErrorCodeRateLimited:
		return true
	default:
		return false
	}
}

// SynthesisError reports which chunk of a paragraph failed. It matches
// ErrSynthesisFailed with errors.Is.
type SynthesisError struct {
	ChunkIndex int
	ChunkText  string
	Cause      error
}

func (e *SynthesisError) Error() string {
	text := e.ChunkText
	if r := []rune(text); len(r) > 60 {
		text = string(r[:60]) + "…"
	}
	if e.Cause == nil {
		return fmt.Sprintf("synthesis failed for chunk %d (%q)", e.ChunkIndex, text)
	}
	return fmt.Sprintf("synthesis failed for chunk %d (%q): %v", e.ChunkIndex, text, e.Cause)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrSynthesisFailed.
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesisFailed
}
