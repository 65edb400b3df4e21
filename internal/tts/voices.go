package tts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// DefaultVoice is the narrator used when none is configured.
const DefaultVoice = "af_heart"

// Voice is a Kokoro voice identifier such as "af_heart". The first letter
// selects the language pipeline and the second the speaker gender.
type Voice struct {
	Name     string
	Language string
	Female   bool
}

var languages = map[byte]string{
	'a': "en-us",
	'b': "en-gb",
	'e': "es",
	'f': "fr-fr",
	'h': "hi",
	'i': "it",
	'j': "ja",
	'p': "pt-br",
	'z': "cmn",
}

var voiceNames = []string{
	"af_heart", "af_alloy", "af_aoede", "af_bella", "af_jessica", "af_kore",
	"af_nicole", "af_nova", "af_river", "af_sarah", "af_sky",
	"am_adam", "am_echo", "am_eric", "am_fenrir", "am_liam", "am_michael",
	"am_onyx", "am_puck", "am_santa",
	"bf_alice", "bf_emma", "bf_isabella", "bf_lily",
	"bm_daniel", "bm_fable", "bm_george", "bm_lewis",
	"ef_dora", "em_alex", "ff_siwis", "hf_alpha", "hm_omega",
	"if_sara", "im_nicola", "jf_alpha", "jm_kumo", "pf_dora", "pm_alex",
	"zf_xiaobei", "zm_yunjian",
}

// Voices returns the known voice catalog in display order.
func Voices() []Voice {
	out := make([]Voice, 0, len(voiceNames))
	for _, name := range voiceNames {
		v, _ := ParseVoice(name)
		out = append(out, v)
	}
	return out
}

// SampleVoices returns the English voices rendered by the samples command.
func SampleVoices() []string {
	var out []string
	for _, name := range voiceNames {
		if name[0] == 'a' || name[0] == 'b' {
			out = append(out, name)
		}
	}
	return out
}

// ParseVoice splits a voice identifier into its language and gender. Names
// outside the catalog are accepted as long as they carry a known language
// prefix, so newly published voices keep working.
func ParseVoice(name string) (Voice, error) {
	if len(name) < 4 || name[2] != '_' || (name[1] != 'f' && name[1] != 'm') {
		return Voice{}, fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	lang, ok := languages[name[0]]
	if !ok {
		return Voice{}, fmt.Errorf("%w: %q has no known language prefix", ErrUnknownVoice, name)
	}
	return Voice{Name: name, Language: lang, Female: name[1] == 'f'}, nil
}

// LanguageForVoice returns the language tag of the pipeline that voices name.
func LanguageForVoice(name string) string {
	v, err := ParseVoice(name)
	if err != nil {
		return languages['a']
	}
	return v.Language
}

// Known reports whether name is part of the catalog.
func Known(name string) bool {
	return slices.Contains(voiceNames, name)
}

// Suggest returns up to limit catalog voices that resemble name.
func Suggest(name string, limit int) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	var out []string
	for _, m := range fuzzy.Find(name, voiceNames) {
		out = append(out, m.Str)
	}
	if len(out) == 0 && len(name) >= 3 {
		// Same language and gender when nothing matches in order.
		for _, v := range voiceNames {
			if strings.HasPrefix(v, name[:3]) {
				out = append(out, v)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
