// Package engines contains the speech engines behind tts.Synthesizer: a
// generic subprocess bridge for Kokoro, Piper, OpenAI, Microsoft Edge and a
// deterministic mock used by tests. Every engine returns 24 kHz mono audio.
package engines
