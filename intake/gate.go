// Package intake decides which inbound messages are worth an analysis call
// and which detected events are worth posting: a linear filter pipeline with
// no retries and no revisits. A message that fails any stage stops there.
package intake

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noamelf/whatsapp-me/analysis"
	"github.com/noamelf/whatsapp-me/calendar"
	"github.com/noamelf/whatsapp-me/events"
	"github.com/noamelf/whatsapp-me/flood"
	"github.com/noamelf/whatsapp-me/groupcache"
	"github.com/noamelf/whatsapp-me/internal/chathistory"
)

// Message is the gate's view of one inbound WhatsApp message, already
// flattened from the protocol payload at the adapter boundary.
type Message struct {
	ChatID     string
	SenderID   string
	SenderName string
	MessageID  string
	// Text holds the message body, or the caption when the message is an
	// image.
	Text         string
	HasImage     bool
	ImageDataURL string
	// LoadImage lazily fetches the image as a data URL. It is only
	// invoked once the message has survived every filter, so suppressed
	// photo floods are never downloaded.
	LoadImage func(ctx context.Context) (string, error)
	FromSelf  bool
	IsGroup   bool
	// IsSelfChat marks the owner messaging themselves, which is allowed
	// through as a manual testing channel.
	IsSelfChat bool
	SentAt     time.Time
}

type Disposition string

const (
	DroppedEmpty       Disposition = "dropped_empty"
	DroppedSummaryEcho Disposition = "dropped_summary_echo"
	DroppedSelf        Disposition = "dropped_self"
	DroppedPhotoFlood  Disposition = "dropped_photo_flood"
	AnalysisFailed     Disposition = "analysis_failed"
	NoEvents           Disposition = "no_events"
	Processed          Disposition = "processed"
)

// Outcome reports what the gate did with a message, mostly for tests and
// the simulate endpoint.
type Outcome struct {
	Disposition       Disposition
	EventsDetected    int
	EventsDispatched  int
	EventsDeduplicate int
}

type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

type Dispatcher interface {
	SendText(ctx context.Context, chatID, text string) error
	SendInvite(ctx context.Context, chatID, filename string, ics []byte) error
}

type GroupResolver interface {
	Get(ctx context.Context, groupID string) (groupcache.Descriptor, bool)
}

type Options struct {
	// TargetChatID is the chat that receives event posts and invites.
	TargetChatID string
	HistorySize  int
	// DisableSelfTest closes the owner's self-chat, which is otherwise
	// allowed through as a manual testing channel.
	DisableSelfTest bool
}

type Gate struct {
	logger     *slog.Logger
	detector   *flood.Detector
	store      *events.Store
	history    *chathistory.Buffer
	groups     GroupResolver
	analyzer   Analyzer
	dispatcher Dispatcher
	targetChat string
	allowSelf  bool
}

func New(logger *slog.Logger, detector *flood.Detector, store *events.Store, groups GroupResolver, analyzer Analyzer, dispatcher Dispatcher, opts Options) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		logger:     logger,
		detector:   detector,
		store:      store,
		history:    chathistory.NewBuffer(opts.HistorySize),
		groups:     groups,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		targetChat: strings.TrimSpace(opts.TargetChatID),
		allowSelf:  !opts.DisableSelfTest,
	}
}

// Handle runs one message through the pipeline to completion. Collaborator
// failures are converted to neutral results here; nothing Handle does may
// take down processing of other in-flight messages.
func (g *Gate) Handle(ctx context.Context, msg Message) Outcome {
	logger := g.logger.With("chat_id", msg.ChatID, "message_id", msg.MessageID)

	// Stage 1: content filter.
	if strings.TrimSpace(msg.Text) == "" && !msg.HasImage {
		return Outcome{Disposition: DroppedEmpty}
	}
	if IsOwnSummary(msg.Text) {
		logger.Debug("gate_drop", "reason", "own_summary_echo")
		return Outcome{Disposition: DroppedSummaryEcho}
	}

	// Stage 2: origin filter. Self-authored messages are skipped except in
	// the owner's self-chat.
	if msg.FromSelf && !(msg.IsSelfChat && g.allowSelf) {
		return Outcome{Disposition: DroppedSelf}
	}

	// Stage 3: photo-flood filter. The arrival is tracked first, so the
	// photo that completes a burst is itself suppressed and the window
	// stays accurate for the messages that follow.
	if msg.HasImage {
		g.detector.Track(msg.ChatID, strings.TrimSpace(msg.Text) != "")
		if g.detector.IsFlood(msg.ChatID) {
			logger.Debug("gate_drop", "reason", "photo_flood")
			return Outcome{Disposition: DroppedPhotoFlood}
		}
	}

	// Stage 4: analysis, with recent context and the resolved chat name.
	historySnapshot := g.history.Recent(msg.ChatID)
	if strings.TrimSpace(msg.Text) != "" {
		g.history.Append(msg.ChatID, chathistory.Entry{
			Sender: msg.SenderName,
			Text:   msg.Text,
			SentAt: msg.SentAt,
		})
	}

	imageDataURL := msg.ImageDataURL
	if imageDataURL == "" && msg.HasImage && msg.LoadImage != nil {
		data, err := msg.LoadImage(ctx)
		if err != nil {
			logger.Warn("image_download_failed", "error", err.Error())
		} else {
			imageDataURL = data
		}
	}

	req := analysis.Request{
		ChatName:     g.chatName(ctx, msg),
		MessageText:  msg.MessageText(),
		ImageDataURL: imageDataURL,
	}
	for _, h := range historySnapshot {
		req.History = append(req.History, analysis.HistoryEntry{Sender: h.Sender, Text: h.Text})
	}

	res, err := g.analyzer.Analyze(ctx, req)
	if err != nil {
		logger.Warn("analysis_failed", "error", err.Error())
		return Outcome{Disposition: AnalysisFailed}
	}
	if !res.HasEvents {
		return Outcome{Disposition: NoEvents}
	}

	// Stage 5: per-event dedup and dispatch.
	out := Outcome{Disposition: Processed}
	for _, ev := range res.Events {
		if !ev.IsEvent {
			continue
		}
		out.EventsDetected++
		// MarkCreated doubles as the atomic reservation: of several
		// in-flight duplicates, exactly one caller gets true.
		if !g.store.MarkCreated(ev) {
			out.EventsDeduplicate++
			logger.Debug("event_deduplicated", "fingerprint", events.Fingerprint(ev))
			continue
		}
		if !g.dispatch(ctx, logger, ev, req.ChatName) {
			// Nothing went out; release the reservation so a later
			// re-detection can retry.
			g.store.Forget(ev)
			continue
		}
		out.EventsDispatched++
	}

	if out.EventsDispatched > 0 {
		if err := g.store.Save(); err != nil {
			logger.Warn("created_events_save_failed", "error", err.Error())
		}
	}
	if out.EventsDetected == 0 {
		out.Disposition = NoEvents
	}
	return out
}

// dispatch posts the event summary and its invite, reporting whether
// anything reached the target chat. A failed invite after a successful text
// post still counts as dispatched.
func (g *Gate) dispatch(ctx context.Context, logger *slog.Logger, ev events.Details, chatName string) bool {
	correlationID := uuid.NewString()
	logger = logger.With("correlation_id", correlationID, "event_title", ev.Title)

	if err := g.dispatcher.SendText(ctx, g.targetChat, FormatSummary(ev, chatName)); err != nil {
		logger.Warn("event_post_failed", "error", err.Error())
		return false
	}

	filename, ics, err := calendar.Invite(ev)
	if err != nil {
		// No parsable start date; the text post alone still goes out.
		logger.Debug("invite_skipped", "error", err.Error())
		return true
	}
	if err := g.dispatcher.SendInvite(ctx, g.targetChat, filename, ics); err != nil {
		logger.Warn("invite_send_failed", "error", err.Error())
		return true
	}
	logger.Info("event_posted", "start", ev.StartDateISO)
	return true
}

func (g *Gate) chatName(ctx context.Context, msg Message) string {
	if !msg.IsGroup {
		return msg.SenderName
	}
	if desc, ok := g.groups.Get(ctx, msg.ChatID); ok {
		return desc.DisplayName
	}
	return msg.ChatID
}

// MessageText returns the analyzable text for the message, with a small
// hint when an uncaptioned image is being analyzed.
func (m Message) MessageText() string {
	text := strings.TrimSpace(m.Text)
	if text == "" && m.HasImage {
		return "(image without caption)"
	}
	return text
}
