// Package estimate approximates LLM token counts and reports how much a
// TOON rendering saves over the equivalent JSON.
package estimate

import (
	"math"
	"unicode/utf16"
)

// CharsPerToken is the rough number of characters one token covers.
const CharsPerToken = 4

// Savings compares a JSON text with its TOON rendering
type Savings struct {
	JSONChars    int     `json:"json_chars"`
	TOONChars    int     `json:"toon_chars"`
	JSONTokens   int     `json:"json_tokens"`
	TOONTokens   int     `json:"toon_tokens"`
	SavedTokens  int     `json:"saved_tokens"`
	CharPercent  float64 `json:"char_percent"`
	TokenPercent float64 `json:"token_percent"`
}

// Length counts text in UTF-16 code units, the unit editors and browsers
// report as string length. Characters outside the Basic Multilingual Plane
// count twice.
func Length(text string) int {
	n := 0
	for _, r := range text {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Tokens estimates the token count of text as ceil(Length / 4).
func Tokens(text string) int {
	return (Length(text) + CharsPerToken - 1) / CharsPerToken
}

// Percent returns how much smaller b is than a, as a percentage rounded to
// one decimal. It is 0 when a is 0 and negative when b is larger.
func Percent(a, b int) float64 {
	if a == 0 {
		return 0
	}
	return math.Round(1000*float64(a-b)/float64(a)) / 10
}

// Compare measures jsonText against toonText.
func Compare(jsonText, toonText string) Savings {
	s := Savings{
		JSONChars:  Length(jsonText),
		TOONChars:  Length(toonText),
		JSONTokens: Tokens(jsonText),
		TOONTokens: Tokens(toonText),
	}
	s.SavedTokens = s.JSONTokens - s.TOONTokens
	s.CharPercent = Percent(s.JSONChars, s.TOONChars)
	s.TokenPercent = Percent(s.JSONTokens, s.TOONTokens)
	return s
}
