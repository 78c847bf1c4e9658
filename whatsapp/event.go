package whatsapp

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Event is the boundary representation of one inbound message, flattened
// from the protocol payload. Invalid or empty payloads never produce an
// Event.
type Event struct {
	ChatJID    string
	SenderJID  string
	MessageID  string
	SenderName string
	// Text is the message body, or the image caption for image messages.
	Text       string
	HasImage   bool
	FromMe     bool
	IsGroup    bool
	IsSelfChat bool
	SentAt     time.Time

	image *waE2E.ImageMessage
}

// Handlers receive already-translated events. GroupChanged fires for both
// group-info and participant updates; the payloads are partial, so only the
// JID is surfaced and callers re-fetch.
type Handlers struct {
	Message      func(Event)
	GroupChanged func(groupJID string)
}

// Listen registers the event handlers on the underlying connection.
func (c *Client) Listen(h Handlers) {
	c.wa.AddEventHandler(func(raw interface{}) {
		switch evt := raw.(type) {
		case *events.Message:
			if h.Message == nil {
				return
			}
			if ev, ok := c.translateMessage(evt); ok {
				h.Message(ev)
			}
		case *events.GroupInfo:
			if h.GroupChanged != nil {
				h.GroupChanged(evt.JID.String())
			}
		}
	})
}

func (c *Client) translateMessage(evt *events.Message) (Event, bool) {
	msg := evt.Message
	if msg == nil {
		return Event{}, false
	}

	text := msg.GetConversation()
	if text == "" {
		text = msg.GetExtendedTextMessage().GetText()
	}
	img := msg.GetImageMessage()
	if img != nil && text == "" {
		text = img.GetCaption()
	}
	if strings.TrimSpace(text) == "" && img == nil {
		// Reactions, receipts, stickers, and other payload kinds the bot
		// has no use for.
		return Event{}, false
	}

	info := evt.Info
	out := Event{
		ChatJID:    info.Chat.String(),
		SenderJID:  info.Sender.ToNonAD().String(),
		MessageID:  info.ID,
		SenderName: info.PushName,
		Text:       text,
		HasImage:   img != nil,
		FromMe:     info.IsFromMe,
		IsGroup:    info.IsGroup,
		SentAt:     info.Timestamp,
		image:      img,
	}
	if self := c.wa.Store.ID; self != nil && !info.IsGroup {
		out.IsSelfChat = info.IsFromMe && info.Chat.User == self.User && info.Chat.Server == types.DefaultUserServer
	}
	return out, true
}

// DownloadImageDataURL fetches the event's image and returns it as a data
// URL for the analyzer. Only valid for events with HasImage set.
func (c *Client) DownloadImageDataURL(ctx context.Context, ev Event) (string, error) {
	if ev.image == nil {
		return "", nil
	}
	data, err := c.wa.Download(ctx, ev.image)
	if err != nil {
		return "", err
	}
	mime := ev.image.GetMimetype()
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
