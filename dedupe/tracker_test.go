package dedupe

import (
	"sync"
	"testing"
)

func TestAppendInvisibleCharacter(t *testing.T) {
	tests := []struct {
		name   string
		record *LastMessage
		text   string
		action bool
		want   string
	}{
		{"no record", nil, "hi", false, "hi"},
		{"same text and kind", &LastMessage{Text: "hi"}, "hi", false, "hi" + InvisibleSuffix},
		{"same text action kind", &LastMessage{Text: "hi", Action: true}, "hi", true, "hi" + InvisibleSuffix},
		{"kind differs", &LastMessage{Text: "hi"}, "hi", true, "hi"},
		{"text differs", &LastMessage{Text: "hi"}, "hello", false, "hello"},
		{"case differs", &LastMessage{Text: "hi"}, "Hi", false, "Hi"},
		{"empty text repeated", &LastMessage{Text: ""}, "", false, InvisibleSuffix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			if tt.record != nil {
				tr.Record("#c", tt.record.Text, tt.record.Action)
			}
			got := tr.AppendInvisibleCharacter("#c", tt.text, tt.action)
			if got != tt.want {
				t.Errorf("AppendInvisibleCharacter(%q, %v) = %q, want %q", tt.text, tt.action, got, tt.want)
			}
		})
	}
}

func TestAppendInvisibleCharacterDoesNotMutate(t *testing.T) {
	tr := NewTracker()
	tr.AppendInvisibleCharacter("#c", "hi", false)
	if _, ok := tr.Last("#c"); ok {
		t.Fatal("expected no record after a pure lookup")
	}

	tr.Record("#c", "hi", false)
	tr.AppendInvisibleCharacter("#c", "hi", false)
	last, _ := tr.Last("#c")
	if last.Text != "hi" {
		t.Errorf("record text = %q, want %q", last.Text, "hi")
	}
}

func TestTrackerChannelsAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Record("#a", "hi", false)

	if got := tr.AppendInvisibleCharacter("#b", "hi", false); got != "hi" {
		t.Errorf("other channel got %q, want unchanged", got)
	}
}

func TestRecordOverwrites(t *testing.T) {
	tr := NewTracker()
	tr.Record("#c", "one", false)
	tr.Record("#c", "two", true)

	last, ok := tr.Last("#c")
	if !ok {
		t.Fatal("expected record")
	}
	if last != (LastMessage{Text: "two", Action: true}) {
		t.Errorf("last = %+v", last)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.Record("#c", "hi", false)
		}()
		go func() {
			defer wg.Done()
			got := tr.AppendInvisibleCharacter("#c", "hi", false)
			if got != "hi" && got != "hi"+InvisibleSuffix {
				t.Errorf("unexpected result %q", got)
			}
		}()
	}
	wg.Wait()
}
