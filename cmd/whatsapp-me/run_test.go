package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/noamelf/whatsapp-me/analysis"
	"github.com/noamelf/whatsapp-me/events"
	"github.com/noamelf/whatsapp-me/flood"
	"github.com/noamelf/whatsapp-me/groupcache"
	"github.com/noamelf/whatsapp-me/intake"
	"github.com/noamelf/whatsapp-me/whatsapp"
)

type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingAnalyzer) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	close(a.started)
	<-a.release
	return analysis.Result{}, nil
}

type nullDispatcher struct{}

func (nullDispatcher) SendText(ctx context.Context, chatID, text string) error { return nil }
func (nullDispatcher) SendInvite(ctx context.Context, chatID, filename string, ics []byte) error {
	return nil
}

type nullGroups struct{}

func (nullGroups) Get(ctx context.Context, groupID string) (groupcache.Descriptor, bool) {
	return groupcache.Descriptor{}, false
}

// A slow analysis call for one message must not block the protocol receive
// loop that delivers the next one.
func TestMessageHandlerDoesNotBlockReceiveLoop(t *testing.T) {
	analyzer := &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	defer close(analyzer.release)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := events.NewStore(filepath.Join(t.TempDir(), "created_events.json"), 0, nil)
	gate := intake.New(logger, flood.NewDetector(0, 0, 0), store, nullGroups{}, analyzer, nullDispatcher{}, intake.Options{
		TargetChatID: "target@g.us",
	})

	handler := messageHandler(context.Background(), logger, gate, nil)
	handler(whatsapp.Event{ChatJID: "group@g.us", MessageID: "m1", Text: "hello", IsGroup: true})

	// handler returned while the analyzer is still mid-call; now confirm
	// the message actually reached it.
	select {
	case <-analyzer.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("message never reached analysis")
	}
}
