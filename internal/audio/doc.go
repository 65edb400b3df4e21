// Package audio holds the in-memory PCM buffer used throughout the pipeline
// and the WAV artifact helpers that persist it. All synthesized audio is
// 16-bit signed little endian, mono, at SampleRate.
package audio
