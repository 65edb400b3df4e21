// Package text turns paragraph prose into synthesis-safe chunks. It cleans
// typographic noise out of the text, splits it into sentences with a
// locale-appropriate tokenizer, and regroups those sentences into units that
// are neither too short nor too long for a speech engine.
package text
