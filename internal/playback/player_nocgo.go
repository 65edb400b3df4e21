//go:build nocgo
// +build nocgo

package playback

import "context"

// Stub for builds without CGO, where oto cannot reach a sound server.
func play(context.Context, []byte) error {
	return ErrUnavailable
}
