package lexical

import "strings"

type runeRange struct {
	lo, hi rune
}

// scriptRanges maps blockable script names to their Unicode ranges.
// Indic scripts (Devanagari, Bengali, Tamil, Telugu and friends) are
// deliberately absent: they are always allowed.
var scriptRanges = map[string][]runeRange{
	"chinese": {
		{0x4E00, 0x9FFF},
		{0x3400, 0x4DBF},
		{0x20000, 0x2A6DF},
	},
	"korean": {
		{0xAC00, 0xD7A3},
		{0x1100, 0x11FF},
	},
	"cyrillic": {
		{0x0400, 0x04FF},
	},
	"japanese": {
		{0x3040, 0x309F},
		{0x30A0, 0x30FF},
	},
	"arabic": {
		{0x0600, 0x06FF},
	},
	"thai": {
		{0x0E00, 0x0E7F},
	},
	"vietnamese": {
		{0x1EA0, 0x1EFF},
	},
}

// detectBlockedScripts returns the names of blocked scripts present in
// the text, in blocked-list order
func detectBlockedScripts(text string, blocked []string) []string {
	var found []string
	for _, name := range blocked {
		ranges, ok := scriptRanges[strings.ToLower(name)]
		if !ok {
			continue
		}
		for _, r := range text {
			if inRanges(r, ranges) {
				found = append(found, name)
				break
			}
		}
	}
	return found
}

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}
