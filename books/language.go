package books

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language is the language an article is written in.
type Language int

const (
	// LanguageUndefined is the zero value and is rejected by the Validator.
	LanguageUndefined Language = iota
	LanguageEnglish
	LanguageSwedish
)

var languageNames = map[Language]string{
	LanguageUndefined: "Undefined",
	LanguageEnglish:   "English",
	LanguageSwedish:   "Swedish",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "Language(" + strconv.Itoa(int(l)) + ")"
}

// ParseLanguage accepts a language name in any letter case or its number.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for l, name := range languageNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := languageNames[Language(n)]; ok {
			return Language(n), nil
		}
	}
	return LanguageUndefined, fmt.Errorf("unknown language %q", s)
}

// MarshalText encodes the language by name.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a language name or number.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := ParseLanguage(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalJSON accepts both "English" and 1.
func (l *Language) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return l.UnmarshalText([]byte(name))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("language must be a name or a number: %s", data)
	}
	return l.UnmarshalText([]byte(strconv.Itoa(n)))
}

// UnmarshalYAML accepts a scalar name or number.
func (l *Language) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("language must be a scalar, line %d", value.Line)
	}
	if value.Tag == "!!null" {
		return nil
	}
	return l.UnmarshalText([]byte(value.Value))
}
