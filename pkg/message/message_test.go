package message

import (
	"testing"
)

func TestExtractFeatures(t *testing.T) {
	m := &Message{Text: "CHECK THIS OUT!!! https://example.com @alice 🔥🔥"}
	f := ExtractFeatures(m)

	if f.WordCount != 6 {
		t.Errorf("expected 6 words, got %d", f.WordCount)
	}
	if len(f.URLs) != 1 {
		t.Errorf("expected 1 URL, got %v", f.URLs)
	}
	if len(f.Mentions) != 1 {
		t.Errorf("expected 1 mention, got %v", f.Mentions)
	}
	if f.EmojiCount != 2 {
		t.Errorf("expected 2 emojis, got %d", f.EmojiCount)
	}
	if f.ExclamationCt != 3 {
		t.Errorf("expected 3 exclamations, got %d", f.ExclamationCt)
	}
	if f.CapsRatio <= 0 {
		t.Error("expected positive caps ratio")
	}
}

func TestMaxCharRun(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"hello", 2},
		{"heyyyyy", 5},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		f := ExtractFeatures(&Message{Text: tt.text})
		if f.MaxCharRun != tt.want {
			t.Errorf("%q: expected run %d, got %d", tt.text, tt.want, f.MaxCharRun)
		}
	}
}

func TestEntityTextRuneOffsets(t *testing.T) {
	// Offsets are rune-based, the emoji before the mention must not
	// shift the extraction
	m := &Message{
		Text: "🔥 @alice hi",
		Entities: []Entity{
			{Type: EntityMention, Offset: 2, Length: 6},
		},
	}
	if got := m.EntityText(m.Entities[0]); got != "@alice" {
		t.Errorf("expected @alice, got %q", got)
	}
}

func TestEntityURLsMergedWithTextURLs(t *testing.T) {
	m := &Message{
		Text: "see https://example.com and this",
		Entities: []Entity{
			{Type: EntityTextLink, URL: "https://hidden.example/x"},
		},
	}
	f := ExtractFeatures(m)
	if len(f.URLs) != 2 {
		t.Errorf("expected entity and text URLs merged, got %v", f.URLs)
	}
}

func TestCountEntities(t *testing.T) {
	m := &Message{
		Entities: []Entity{
			{Type: EntityCustomEmoji},
			{Type: EntityCustomEmoji},
			{Type: EntityMention},
		},
	}
	if got := m.CountEntities(EntityCustomEmoji); got != 2 {
		t.Errorf("expected 2 custom emojis, got %d", got)
	}
}

func TestHasCurrency(t *testing.T) {
	f := ExtractFeatures(&Message{Text: "only $99 today"})
	if !f.HasCurrency {
		t.Error("expected currency detection")
	}
	f = ExtractFeatures(&Message{Text: "no money talk here"})
	if f.HasCurrency {
		t.Error("unexpected currency detection")
	}
}
