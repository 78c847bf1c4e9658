// Package analysis asks the language model whether a message describes one
// or more real-world events and extracts their structured details.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/noamelf/whatsapp-me/events"
	"github.com/noamelf/whatsapp-me/llm"
)

// HistoryEntry is one line of recent conversation context.
type HistoryEntry struct {
	Sender string
	Text   string
}

type Request struct {
	ChatName    string
	MessageText string
	// ImageDataURL carries the message's photo as a data URL when the
	// candidate is a flyer image.
	ImageDataURL string
	History      []HistoryEntry
}

type Result struct {
	HasEvents bool             `json:"has_events"`
	Events    []events.Details `json:"events"`
}

type Analyzer struct {
	client llm.Client
	model  string
	logger *slog.Logger
	now    func() time.Time
}

func New(client llm.Client, model string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, model: model, logger: logger, now: time.Now}
}

// Analyze runs one extraction call. A model response that cannot be parsed
// is treated as "no events" rather than an error: a garbled reply must not
// take the message's chat down with it.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	llmReq := llm.Request{
		Model: a.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req, a.now())},
		},
		ForceJSON: true,
	}
	if strings.TrimSpace(req.ImageDataURL) != "" {
		llmReq.Images = []string{req.ImageDataURL}
	}

	start := time.Now()
	res, err := a.client.Chat(ctx, llmReq)
	if err != nil {
		return Result{}, fmt.Errorf("analysis chat: %w", err)
	}

	parsed, err := ParseResult(res.Text)
	if err != nil {
		a.logger.Warn("analysis_parse_failed", "error", err.Error(), "duration", time.Since(start).String())
		return Result{}, nil
	}
	a.logger.Debug("analysis_done",
		"has_events", parsed.HasEvents,
		"event_count", len(parsed.Events),
		"total_tokens", res.Usage.TotalTokens,
		"duration", time.Since(start).String())
	return parsed, nil
}

func buildUserPrompt(req Request, now time.Time) string {
	var b strings.Builder
	// The model resolves "tomorrow"/"מחר" against this line; without it
	// every relative date in the chat is unanchorable.
	fmt.Fprintf(&b, "Current date: %s\n", now.Format("Monday, 2006-01-02 15:04 -07:00"))
	if name := strings.TrimSpace(req.ChatName); name != "" {
		fmt.Fprintf(&b, "Chat: %s\n", name)
	}
	if len(req.History) > 0 {
		b.WriteString("Recent messages:\n")
		for _, h := range req.History {
			sender := strings.TrimSpace(h.Sender)
			if sender == "" {
				sender = "unknown"
			}
			fmt.Fprintf(&b, "- %s: %s\n", sender, h.Text)
		}
	}
	b.WriteString("Message to analyze:\n")
	b.WriteString(req.MessageText)
	return b.String()
}
