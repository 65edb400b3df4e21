// Package playback plays rendered audio on the default output device.
package playback

import (
	"context"
	"errors"

	"github.com/dgnsrekt/epub2tts/internal/audio"
)

// DeviceRate is the rate audio is resampled to before playback. oto only
// supports 44100 and 48000 Hz reliably.
const DeviceRate = 48000

var (
	// ErrEmpty is returned for a buffer without samples.
	ErrEmpty = errors.New("nothing to play")
	// ErrUnavailable is returned by builds without audio output.
	ErrUnavailable = errors.New("audio playback not available in nocgo build")
)

// prepare converts b to the device format.
func prepare(b *audio.Buffer) ([]byte, error) {
	if b == nil || b.Len() == 0 {
		return nil, ErrEmpty
	}
	return audio.EncodePCM16LE(audio.Resample(b.Samples, b.SampleRate, DeviceRate)), nil
}

// Play blocks until b has been played or ctx is done.
func Play(ctx context.Context, b *audio.Buffer) error {
	data, err := prepare(b)
	if err != nil {
		return err
	}
	return play(ctx, data)
}

// PlayFile plays a WAV file.
func PlayFile(ctx context.Context, path string) error {
	b, err := audio.ReadFile(path)
	if err != nil {
		return err
	}
	return Play(ctx, b)
}
