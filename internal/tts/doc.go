// Package tts defines the speech synthesis contract used by the assembler,
// along with the voice catalog, device resolution and the error model shared
// by every engine implementation in tts/engines.
package tts
