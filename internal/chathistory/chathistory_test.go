package chathistory

import "testing"

func TestBufferKeepsLastN(t *testing.T) {
	b := NewBuffer(5)
	for _, text := range []string{"one", "two", "three", "four", "five", "six"} {
		b.Append("chat-a", Entry{Sender: "u1", Text: text})
	}
	got := b.Recent("chat-a")
	if len(got) != 5 {
		t.Fatalf("Recent() len = %d, want 5", len(got))
	}
	if got[0].Text != "two" || got[4].Text != "six" {
		t.Fatalf("Recent() order wrong: first=%q last=%q", got[0].Text, got[4].Text)
	}
}

func TestBufferIsChatScoped(t *testing.T) {
	b := NewBuffer(5)
	b.Append("chat-a", Entry{Text: "hello a"})
	b.Append("chat-b", Entry{Text: "hello b"})
	if len(b.Recent("chat-a")) != 1 || b.Recent("chat-a")[0].Text != "hello a" {
		t.Fatalf("chat-a tail polluted: %v", b.Recent("chat-a"))
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	b := NewBuffer(5)
	b.Append("chat-a", Entry{Text: "original"})
	got := b.Recent("chat-a")
	got[0].Text = "mutated"
	if b.Recent("chat-a")[0].Text != "original" {
		t.Fatalf("Recent() must not expose internal storage")
	}
}
