package models

import "sort"

// Translations maps a locale code (fr, en, ...) to a piece of text.
type Translations map[string]string

// DefaultLocale is used when neither the requested nor the fallback locale has a value.
const DefaultLocale = "fr"

// Get returns the text for locale, then for fallback, then the first non-empty
// value in locale order. Missing everywhere returns "".
func (t Translations) Get(locale, fallback string) string {
	if v := t[locale]; v != "" {
		return v
	}
	if v := t[fallback]; v != "" {
		return v
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}
