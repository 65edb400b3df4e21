package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when a file is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid wav file")

// tempSuffix marks files that are still being written.
const tempSuffix = ".tmp"

// Write encodes b as a 16-bit mono PCM WAV stream.
func Write(w io.WriteSeeker, b *Buffer) error {
	enc := wav.NewEncoder(w, b.SampleRate, BitDepth, Channels, 1)
	if len(b.Samples) > 0 {
		if err := enc.Write(intBuffer(b.SampleRate, b.Samples)); err != nil {
			return fmt.Errorf("unable to encode wav: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finalize wav: %w", err)
	}
	return nil
}

// WriteFile writes b to path, replacing any existing file.
func WriteFile(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := Write(f, b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteFileAtomic writes b next to path and renames it into place, so path
// is either absent or complete.
func WriteFileAtomic(path string, b *Buffer) error {
	tmp := path + tempSuffix
	if err := WriteFile(tmp, b); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("unable to publish %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes a PCM WAV file. Multi-channel audio is down-mixed to mono.
func ReadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: %s has %d-bit samples", ErrInvalidWAV, path, dec.BitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}

	samples := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = int16(v) //nolint:gosec
	}
	return &Buffer{
		SampleRate: int(dec.SampleRate),
		Samples:    Downmix(samples, int(dec.NumChans)),
	}, nil
}

// FileDuration reports the playing time of a WAV file as the number of
// frames in its data chunk divided by the sample rate.
func FileDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("unable to read duration of %s: %w", path, err)
	}
	frameSize := int64(dec.NumChans) * int64(dec.BitDepth/8)
	if frameSize == 0 || dec.SampleRate == 0 {
		return 0, fmt.Errorf("%w: %s has no audio format", ErrInvalidWAV, path)
	}
	return FramesDuration(int(dec.PCMLen()/frameSize), int(dec.SampleRate)), nil
}

// ConcatFiles joins srcs in order into dst and pads the result with tail of
// silence. The sources must share one sample rate. dst is published
// atomically.
func ConcatFiles(dst string, srcs []string, tail time.Duration) error {
	tmp := dst + tempSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", tmp, err)
	}

	cleanup := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}

	var enc *wav.Encoder
	rate := SampleRate
	for _, src := range srcs {
		b, err := ReadFile(src)
		if err != nil {
			return cleanup(err)
		}
		if enc == nil {
			rate = b.SampleRate
			enc = wav.NewEncoder(f, rate, BitDepth, Channels, 1)
		} else if b.SampleRate != rate {
			return cleanup(fmt.Errorf("%w: %s is %d Hz, expected %d Hz", ErrRateMismatch, src, b.SampleRate, rate))
		}
		if b.Len() == 0 {
			continue
		}
		if err := enc.Write(intBuffer(rate, b.Samples)); err != nil {
			return cleanup(fmt.Errorf("unable to encode %s: %w", src, err))
		}
	}
	if enc == nil {
		enc = wav.NewEncoder(f, rate, BitDepth, Channels, 1)
	}
	if silence := Silence(tail, rate); len(silence) > 0 {
		if err := enc.Write(intBuffer(rate, silence)); err != nil {
			return cleanup(fmt.Errorf("unable to encode silence: %w", err))
		}
	}
	if err := enc.Close(); err != nil {
		return cleanup(fmt.Errorf("unable to finalize %s: %w", tmp, err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("unable to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("unable to publish %s: %w", dst, err)
	}
	return nil
}

func intBuffer(rate int, samples []int16) *goaudio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
}
