//go:build !nocgo
// +build !nocgo

package playback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	// oto allows a single context per process.
	ctxOnce sync.Once
	otoCtx  *oto.Context
	ctxErr  error
)

func sharedContext() (*oto.Context, error) {
	ctxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   DeviceRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   100 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, ctxErr = oto.NewContext(op)
		if ctxErr != nil {
			ctxErr = fmt.Errorf("failed to create oto context: %w", ctxErr)
			return
		}
		<-ready
	})
	return otoCtx, ctxErr
}

// play writes device-format PCM to the shared oto context.
func play(ctx context.Context, data []byte) error {
	c, err := sharedContext()
	if err != nil {
		return err
	}

	// data stays referenced by the reader until playback ends.
	p := c.NewPlayer(bytes.NewReader(data))
	defer p.Close() //nolint:errcheck
	p.Play()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return p.Err()
}
