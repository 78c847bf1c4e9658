// Package whatsapp wraps whatsmeow behind the narrow surface the rest of
// the bot consumes: an inbound message/group-change feed, a group-metadata
// fetch, and outbound text/document sends.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/noamelf/whatsapp-me/groupcache"
	"github.com/noamelf/whatsapp-me/internal/fsstore"
)

type Client struct {
	wa     *whatsmeow.Client
	logger *slog.Logger
}

// Connect opens (or creates) the session store, connects, and drives the QR
// login flow on first run. The QR code is printed to stdout for pairing.
func Connect(ctx context.Context, stateDir string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fsstore.EnsureDir(stateDir, 0); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(stateDir, "session.db")

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	wa := whatsmeow.NewClient(device, waLog.Noop)
	c := &Client{wa: wa, logger: logger}

	if wa.Store.ID == nil {
		qrChan, err := wa.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("qr channel: %w", err)
		}
		if err := wa.Connect(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				fmt.Println("Scan this code with WhatsApp (Linked Devices):")
				fmt.Println(evt.Code)
			case "success":
				logger.Info("whatsapp_paired")
			default:
				logger.Info("whatsapp_qr_event", "event", evt.Event)
			}
		}
	} else {
		if err := wa.Connect(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
	}

	logger.Info("whatsapp_connected", "jid", wa.Store.ID.String())
	return c, nil
}

func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

// OwnJID returns the logged-in account's bare JID.
func (c *Client) OwnJID() string {
	if c.wa.Store.ID == nil {
		return ""
	}
	return c.wa.Store.ID.ToNonAD().String()
}

// FetchGroup implements groupcache.Fetcher.
func (c *Client) FetchGroup(ctx context.Context, groupID string) (groupcache.Descriptor, error) {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return groupcache.Descriptor{}, fmt.Errorf("parse group jid %q: %w", groupID, err)
	}
	info, err := c.wa.GetGroupInfo(ctx, jid)
	if err != nil {
		return groupcache.Descriptor{}, err
	}

	desc := groupcache.Descriptor{
		ID:          groupID,
		DisplayName: info.Name,
		FetchedAt:   time.Now().UTC(),
	}
	for _, p := range info.Participants {
		desc.Participants = append(desc.Participants, groupcache.Participant{
			JID:     p.JID.ToNonAD().String(),
			IsAdmin: p.IsAdmin || p.IsSuperAdmin,
		})
	}
	return desc, nil
}

// IsRateLimit reports whether a fetch failed because the server throttled
// us, which is the one error class worth backing off and retrying.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, whatsmeow.ErrIQRateOverLimit) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate-overlimit")
}

func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("parse chat jid %q: %w", chatID, err)
	}
	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

// SendInvite uploads an .ics payload and sends it as a document message.
func (c *Client) SendInvite(ctx context.Context, chatID, filename string, ics []byte) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("parse chat jid %q: %w", chatID, err)
	}
	uploaded, err := c.wa.Upload(ctx, ics, whatsmeow.MediaDocument)
	if err != nil {
		return fmt.Errorf("upload invite: %w", err)
	}
	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Title:         proto.String(strings.TrimSuffix(filename, ".ics")),
			FileName:      proto.String(filename),
			Mimetype:      proto.String("text/calendar"),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		},
	})
	return err
}
