package message

import (
	"strings"
	"time"
	"unicode"
)

// EntityType identifies a structured span inside a message
type EntityType string

const (
	EntityURL         EntityType = "url"
	EntityTextLink    EntityType = "text_link"
	EntityMention     EntityType = "mention"
	EntityCustomEmoji EntityType = "custom_emoji"
	EntityHashtag     EntityType = "hashtag"
)

// Entity is a platform-provided span annotation over the message text
type Entity struct {
	Type   EntityType
	Offset int
	Length int

	// URL is set for text_link entities (the hidden target)
	URL string
}

// Message is the immutable input to scoring. Fields are filled by the
// caller from whatever chat platform delivered the message.
type Message struct {
	ID        string
	ChannelID string
	SenderID  string
	Text      string
	Entities  []Entity
	Timestamp time.Time

	// SenderJoinedAt is when the sender joined the channel, zero if unknown
	SenderJoinedAt time.Time

	// IsReply indicates the message replies to another message
	IsReply bool
}

// Features holds lexical features derived once from a message text
type Features struct {
	Length        int
	WordCount     int
	EmojiCount    int
	CapsRatio     float64
	MaxCapsRun    int
	MaxCharRun    int
	URLs          []string
	Mentions      []string
	HasCurrency   bool
	ExclamationCt int
	QuestionCt    int
}

// ExtractFeatures derives lexical features from a message. Entity URLs
// and mentions are merged with ones found in the raw text.
func ExtractFeatures(m *Message) *Features {
	f := &Features{}
	text := m.Text
	f.Length = len([]rune(text))
	f.WordCount = len(strings.Fields(text))

	var letters, uppers int
	capsRun, charRun := 0, 0
	var prev rune
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
				capsRun++
				if capsRun > f.MaxCapsRun {
					f.MaxCapsRun = capsRun
				}
			} else {
				capsRun = 0
			}
		} else {
			capsRun = 0
		}
		if r == prev {
			charRun++
			if charRun+1 > f.MaxCharRun {
				f.MaxCharRun = charRun + 1
			}
		} else {
			charRun = 0
		}
		prev = r
		if isEmoji(r) {
			f.EmojiCount++
		}
		switch r {
		case '!':
			f.ExclamationCt++
		case '?':
			f.QuestionCt++
		case '$', '€', '£', '₽', '¥', '₹':
			f.HasCurrency = true
		}
	}
	if letters > 0 {
		f.CapsRatio = float64(uppers) / float64(letters)
	}

	f.URLs = extractURLs(m)
	f.Mentions = extractMentions(m)
	return f
}

// CountEntities returns the number of entities of the given type
func (m *Message) CountEntities(t EntityType) int {
	n := 0
	for _, e := range m.Entities {
		if e.Type == t {
			n++
		}
	}
	return n
}

// EntityText returns the raw text covered by an entity, or "" when the
// span falls outside the message
func (m *Message) EntityText(e Entity) string {
	runes := []rune(m.Text)
	if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(runes) {
		return ""
	}
	return string(runes[e.Offset : e.Offset+e.Length])
}

func extractURLs(m *Message) []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		u = strings.TrimRight(u, ".,;:!?)")
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, e := range m.Entities {
		switch e.Type {
		case EntityURL:
			add(m.EntityText(e))
		case EntityTextLink:
			add(e.URL)
		}
	}

	for _, word := range strings.Fields(m.Text) {
		lower := strings.ToLower(word)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
			strings.HasPrefix(lower, "www.") || strings.Contains(lower, "t.me/") {
			add(word)
		}
	}
	return urls
}

func extractMentions(m *Message) []string {
	seen := make(map[string]bool)
	var mentions []string
	add := func(s string) {
		s = strings.TrimPrefix(s, "@")
		s = strings.TrimRight(s, ".,;:!?")
		if s != "" && !seen[s] {
			seen[s] = true
			mentions = append(mentions, s)
		}
	}

	for _, e := range m.Entities {
		if e.Type == EntityMention {
			add(m.EntityText(e))
		}
	}
	for _, word := range strings.Fields(m.Text) {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			add(word)
		}
	}
	return mentions
}

// isEmoji reports whether a rune falls in the common emoji blocks
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols and pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // extended-A
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	}
	return false
}
