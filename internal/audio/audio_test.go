package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFramesFor(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		rate int
		want int
	}{
		{"paragraph pause", 600 * time.Millisecond, SampleRate, 14400},
		{"chapter pause", 2 * time.Second, SampleRate, 48000},
		{"zero", 0, SampleRate, 0},
		{"negative", -time.Second, SampleRate, 0},
		{"no rate", time.Second, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FramesFor(tt.d, tt.rate); got != tt.want {
				t.Errorf("FramesFor(%v, %d) = %d, want %d", tt.d, tt.rate, got, tt.want)
			}
		})
	}
}

func TestBufferAppend(t *testing.T) {
	b := NewBuffer(SampleRate)
	if err := b.Append(&Buffer{SampleRate: SampleRate, Samples: []int16{1, 2}}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	b.AppendSilence(time.Millisecond)
	b.AppendSamples([]int16{3})

	if b.Len() != 2+24+1 {
		t.Fatalf("Len() = %d, want %d", b.Len(), 27)
	}
	if b.Samples[0] != 1 || b.Samples[1] != 2 || b.Samples[26] != 3 {
		t.Errorf("unexpected samples %v", b.Samples)
	}

	err := b.Append(&Buffer{SampleRate: 22050, Samples: []int16{1}})
	if !errors.Is(err, ErrRateMismatch) {
		t.Errorf("Append() error = %v, want ErrRateMismatch", err)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	out := DecodePCM16LE(EncodePCM16LE(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], in[i])
		}
	}

	if got := DecodePCM16LE([]byte{1, 0, 9}); len(got) != 1 || got[0] != 1 {
		t.Errorf("odd trailing byte not ignored: %v", got)
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]int16{10, 20, -4, 4}, 2)
	if len(got) != 2 || got[0] != 15 || got[1] != 0 {
		t.Errorf("Downmix() = %v, want [15 0]", got)
	}
}

func TestResample(t *testing.T) {
	in := make([]int16, 22050)
	for i := range in {
		in[i] = int16(i % 100) //nolint:gosec
	}
	out := Resample(in, 22050, SampleRate)
	if len(out) != SampleRate {
		t.Errorf("Resample() len = %d, want %d", len(out), SampleRate)
	}
	if got := Resample(in, SampleRate, SampleRate); len(got) != len(in) {
		t.Errorf("same rate should be a no-op")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	b := &Buffer{SampleRate: SampleRate, Samples: []int16{100, -100, 200, -200}}
	b.AppendSilence(time.Second)

	if err := WriteFileAtomic(path, b); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if _, err := os.Stat(path + tempSuffix); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.SampleRate != SampleRate {
		t.Errorf("SampleRate = %d, want %d", got.SampleRate, SampleRate)
	}
	if got.Len() != b.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), b.Len())
	}
	for i := 0; i < 4; i++ {
		if got.Samples[i] != b.Samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got.Samples[i], b.Samples[i])
		}
	}

	d, err := FileDuration(path)
	if err != nil {
		t.Fatalf("FileDuration() error = %v", err)
	}
	if diff := d - b.Duration(); diff > time.Millisecond || diff < -time.Millisecond {
		t.Errorf("FileDuration() = %v, want %v", d, b.Duration())
	}
}

func TestReadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("ReadFile() error = %v, want ErrInvalidWAV", err)
	}
}

func TestConcatFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.wav")
	second := filepath.Join(dir, "2.wav")
	if err := WriteFile(first, &Buffer{SampleRate: SampleRate, Samples: []int16{1, 1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(second, &Buffer{SampleRate: SampleRate, Samples: []int16{2, 2}}); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.wav")
	if err := ConcatFiles(dst, []string{first, second}, 10*time.Millisecond); err != nil {
		t.Fatalf("ConcatFiles() error = %v", err)
	}

	got, err := ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{1, 1, 1, 2, 2}
	if got.Len() != len(want)+240 {
		t.Fatalf("Len() = %d, want %d", got.Len(), len(want)+240)
	}
	for i, s := range want {
		if got.Samples[i] != s {
			t.Errorf("sample %d = %d, want %d", i, got.Samples[i], s)
		}
	}

	other := filepath.Join(dir, "3.wav")
	if err := WriteFile(other, &Buffer{SampleRate: 22050, Samples: []int16{3}}); err != nil {
		t.Fatal(err)
	}
	if err := ConcatFiles(filepath.Join(dir, "bad.wav"), []string{first, other}, 0); !errors.Is(err, ErrRateMismatch) {
		t.Errorf("ConcatFiles() error = %v, want ErrRateMismatch", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.wav")); !os.IsNotExist(err) {
		t.Errorf("failed concat should not publish a file")
	}
}
