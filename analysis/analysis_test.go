package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/noamelf/whatsapp-me/llm"
)

type scriptedClient struct {
	lastReq llm.Request
	text    string
	err     error
}

func (c *scriptedClient) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	c.lastReq = req
	if c.err != nil {
		return llm.Result{}, c.err
	}
	return llm.Result{Text: c.text}, nil
}

func TestAnalyzePassesContextAndImage(t *testing.T) {
	client := &scriptedClient{text: `{"has_events":false,"events":[]}`}
	a := New(client, "gpt-4o-mini", nil)

	_, err := a.Analyze(context.Background(), Request{
		ChatName:     "Beach Volleyball",
		MessageText:  "see the flyer",
		ImageDataURL: "data:image/jpeg;base64,AAAA",
		History: []HistoryEntry{
			{Sender: "dana", Text: "who is coming tomorrow?"},
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if client.lastReq.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", client.lastReq.Model)
	}
	if !client.lastReq.ForceJSON {
		t.Fatalf("analysis requests must force JSON output")
	}
	if len(client.lastReq.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(client.lastReq.Images))
	}
	user := client.lastReq.Messages[len(client.lastReq.Messages)-1].Content
	if !strings.Contains(user, "Beach Volleyball") || !strings.Contains(user, "who is coming tomorrow?") {
		t.Fatalf("user prompt missing chat context: %q", user)
	}
}

func TestAnalyzeMalformedResponseIsEmptyResult(t *testing.T) {
	client := &scriptedClient{text: "no json here"}
	a := New(client, "gpt-4o-mini", nil)

	res, err := a.Analyze(context.Background(), Request{MessageText: "hello"})
	if err != nil {
		t.Fatalf("Analyze() error = %v, want nil for malformed model output", err)
	}
	if res.HasEvents || len(res.Events) != 0 {
		t.Fatalf("Analyze() = %+v, want empty result", res)
	}
}

func TestAnalyzePropagatesTransportError(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	a := New(client, "gpt-4o-mini", nil)

	if _, err := a.Analyze(context.Background(), Request{MessageText: "hello"}); err == nil {
		t.Fatalf("Analyze() expected error on transport failure")
	}
}

func TestAnalyzeAnchorsRelativeDates(t *testing.T) {
	client := &scriptedClient{text: `{"has_events":false,"events":[]}`}
	a := New(client, "gpt-4o-mini", nil)
	a.now = func() time.Time {
		return time.Date(2026, 8, 28, 18, 30, 0, 0, time.FixedZone("IDT", 3*60*60))
	}

	_, err := a.Analyze(context.Background(), Request{MessageText: "מחר בשעה 10:00 יש לנו פגישה בקפה נחלת בנימין"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	user := client.lastReq.Messages[len(client.lastReq.Messages)-1].Content
	if !strings.Contains(user, "Current date: Friday, 2026-08-28 18:30 +03:00") {
		t.Fatalf("user prompt must anchor relative dates, got:\n%s", user)
	}
}
