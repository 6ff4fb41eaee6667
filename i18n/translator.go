package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for error codes.
// data provides optional values to embed in the message (for example,
// "found", "min" or "allowed").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"type":       "invalid type: found {found}",
		"union":      "no alternative matched ({alternatives} tried)",
		"length":     "length {length} out of bounds{bounds}",
		"range":      "number out of range{bounds}",
		"entryCount": "entry count {entryCount} out of bounds{bounds}",
		"pattern":    "does not match the pattern",
		"mismatch":   "must be one of: {allowed}",
		"parse":      "invalid JSON text: {error}",
	},
	"ja": {
		"type":       "型が不正です（検出: {found}）",
		"union":      "いずれの候補にも一致しません（候補数: {alternatives}）",
		"length":     "長さ {length} が範囲外です{bounds}",
		"range":      "数値が範囲外です{bounds}",
		"entryCount": "要素数 {entryCount} が範囲外です{bounds}",
		"pattern":    "パターンに一致しません",
		"mismatch":   "次のいずれかである必要があります: {allowed}",
		"parse":      "JSON テキストとして解析できません: {error}",
	},
}

var boundWords = map[string][2]string{
	"en": {"min", "max"},
	"ja": {"最小", "最大"},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	pairs := make([]string, 0, 2*len(data)+2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	pairs = append(pairs, "{bounds}", t.bounds(data))
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// bounds renders whichever of min/max is present, e.g. " (min 1, max 3)".
func (t dictTranslator) bounds(data map[string]string) string {
	words := boundWords[t.lang]
	var parts []string
	if v, ok := data["min"]; ok {
		parts = append(parts, words[0]+" "+v)
	}
	if v, ok := data["max"]; ok {
		parts = append(parts, words[1]+" "+v)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().tr.Message(code, data)
}
