// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lang classifies a topic string into the pipeline's working
// language. Deterministic and model-free: it gates the rest of the
// pipeline and must stay fast.
package lang

import "strings"

// Language is a supported working-language code.
type Language string

const (
	Turkish Language = "tr"
	English Language = "en"
	French  Language = "fr"
	German  Language = "de"
)

// Name returns the human-readable English name used in prompts and
// report headers.
func (l Language) Name() string {
	switch l {
	case Turkish:
		return "Turkish"
	case French:
		return "French"
	case German:
		return "German"
	default:
		return "English"
	}
}

// Diacritic characters checked first, highest-precedence signal.
// Order matters: Turkish before French before German, so shared
// characters (ç, ü, ö) resolve to the earlier language.
var (
	turkishChars = "çğışüöÇĞİŞÜÖ"
	frenchChars  = "éèêëàâùûôîïÿ"
	germanChars  = "äößÄÖ"
)

// Stop-word lists scanned as whole words, in fixed priority order.
var (
	turkishWords = wordSet("ve", "ile", "bir", "bu", "şu", "nedir", "nasıl", "hangi", "kim", "nerede", "neden", "hakkında", "güncel")
	frenchWords  = wordSet("le", "la", "les", "une", "des", "et", "ou", "est", "que", "qui", "comment", "quel", "quelle", "pourquoi")
	germanWords  = wordSet("der", "die", "das", "und", "oder", "ist", "wie", "welche", "warum", "beste", "aktuelle")
)

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// Detect classifies text into one of the fixed language codes. The
// diacritic check wins outright; otherwise the first language in
// priority order (tr, fr, de) with a nonzero stop-word match count
// wins; English is the default.
func Detect(text string) Language {
	if strings.ContainsAny(text, turkishChars) {
		return Turkish
	}
	if strings.ContainsAny(text, frenchChars) {
		return French
	}
	if strings.ContainsAny(text, germanChars) {
		return German
	}

	fields := strings.Fields(strings.ToLower(text))
	for _, set := range []struct {
		words map[string]bool
		lang  Language
	}{
		{turkishWords, Turkish},
		{frenchWords, French},
		{germanWords, German},
	} {
		for _, f := range fields {
			if set.words[f] {
				return set.lang
			}
		}
	}
	return English
}
