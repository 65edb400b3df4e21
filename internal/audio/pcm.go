package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Audio format constants for every artifact the pipeline writes.
const (
	SampleRate = 24000
	Channels   = 1
	BitDepth   = 16
)

// ErrRateMismatch is returned when buffers with different sample rates are
// joined.
var ErrRateMismatch = errors.New("sample rate mismatch")

// Buffer is mono 16-bit PCM audio at a fixed sample rate.
type Buffer struct {
	SampleRate int
	Samples    []int16
}

// NewBuffer returns an empty buffer at the given rate.
func NewBuffer(rate int) *Buffer {
	return &Buffer{SampleRate: rate}
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	return FramesDuration(len(b.Samples), b.SampleRate)
}

// Len returns the number of frames in the buffer.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Append adds the samples of o to the end of b.
func (b *Buffer) Append(o *Buffer) error {
	if o == nil {
		return nil
	}
	if o.SampleRate != b.SampleRate {
		return fmt.Errorf("%w: %d Hz into %d Hz", ErrRateMismatch, o.SampleRate, b.SampleRate)
	}
	b.Samples = append(b.Samples, o.Samples...)
	return nil
}

// AppendSamples adds raw samples assumed to be at the buffer's rate.
func (b *Buffer) AppendSamples(samples []int16) {
	b.Samples = append(b.Samples, samples...)
}

// AppendSilence pads the buffer with d of digital silence.
func (b *Buffer) AppendSilence(d time.Duration) {
	b.Samples = append(b.Samples, Silence(d, b.SampleRate)...)
}

// FramesFor returns the number of frames covering d at rate.
func FramesFor(d time.Duration, rate int) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int(int64(d) * int64(rate) / int64(time.Second))
}

// FramesDuration converts a frame count at rate to a duration.
func FramesDuration(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(rate))
}

// Silence returns d worth of zero samples at rate.
func Silence(d time.Duration, rate int) []int16 {
	return make([]int16, FramesFor(d, rate))
}

// DecodePCM16LE converts little endian 16-bit PCM bytes to samples. A
// trailing odd byte is ignored.
func DecodePCM16LE(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:])) //nolint:gosec
	}
	return samples
}

// EncodePCM16LE converts samples to little endian 16-bit PCM bytes.
func EncodePCM16LE(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s)) //nolint:gosec
	}
	return data
}

// Downmix averages interleaved channels into a single mono channel.
func Downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/channels)
	for i := range out {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		out[i] = int16(sum / int32(channels)) //nolint:gosec
	}
	return out
}

// Resample converts mono samples between rates using linear interpolation.
// This is adequate for speech; it does no anti-alias filtering.
func Resample(samples []int16, from, to int) []int16 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(to) / float64(from)
	n := int(float64(len(samples)) * ratio)
	out := make([]int16, n)
	last := len(samples) - 1

	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		v := float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac
		out[i] = int16(v)
	}
	return out
}
