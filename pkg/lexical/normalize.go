package lexical

import (
	"regexp"
	"strings"
)

// homoglyphs maps Cyrillic lookalike runes to their ASCII equivalents.
// Spammers swap these in to slip keyword filters.
var homoglyphs = map[rune]rune{
	'а': 'a', 'А': 'A',
	'в': 'b', 'В': 'B',
	'с': 'c', 'С': 'C',
	'е': 'e', 'Е': 'E',
	'н': 'h', 'Н': 'H',
	'і': 'i', 'І': 'I',
	'к': 'k', 'К': 'K',
	'м': 'm', 'М': 'M',
	'о': 'o', 'О': 'O',
	'р': 'p', 'Р': 'P',
	'т': 't', 'Т': 'T',
	'у': 'y', 'У': 'Y',
	'х': 'x', 'Х': 'X',
}

// foldHomoglyphs replaces Cyrillic lookalikes with ASCII equivalents
func foldHomoglyphs(text string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := homoglyphs[r]; ok {
			return ascii
		}
		return r
	}, text)
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// stripPunct lowers the text and collapses punctuation to spaces, so
// phrase matching survives "d.m m-e n o w" style padding
func stripPunct(lower string) string {
	s := nonWordRe.ReplaceAllString(lower, " ")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}
