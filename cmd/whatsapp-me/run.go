package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noamelf/whatsapp-me/analysis"
	"github.com/noamelf/whatsapp-me/events"
	"github.com/noamelf/whatsapp-me/flood"
	"github.com/noamelf/whatsapp-me/groupcache"
	"github.com/noamelf/whatsapp-me/intake"
	"github.com/noamelf/whatsapp-me/internal/adminserver"
	"github.com/noamelf/whatsapp-me/internal/logutil"
	"github.com/noamelf/whatsapp-me/internal/retryutil"
	"github.com/noamelf/whatsapp-me/internal/statepaths"
	"github.com/noamelf/whatsapp-me/providers/openai"
	"github.com/noamelf/whatsapp-me/whatsapp"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to WhatsApp and watch chats for event announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
	cmd.Flags().String("target-group", "", "JID of the group that receives summaries and invites")
	_ = viper.BindPFlag("whatsapp.target_group", cmd.Flags().Lookup("target-group"))
	cmd.Flags().Bool("with-server", false, "expose the local admin HTTP server")
	_ = viper.BindPFlag("server.enabled", cmd.Flags().Lookup("with-server"))
	return cmd
}

func runBot(parent context.Context) error {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	target := strings.TrimSpace(viper.GetString("whatsapp.target_group"))
	if target == "" {
		return fmt.Errorf("missing whatsapp.target_group (set via --target-group or WHATSAPP_ME_WHATSAPP_TARGET_GROUP)")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := events.NewStore(statepaths.CreatedEventsPath(), viper.GetDuration("dedup.retention"), logger)
	store.Load()

	client, err := whatsapp.Connect(ctx, statepaths.WhatsAppDir(), logger)
	if err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}
	defer client.Disconnect()

	groups := groupcache.New(client, logger, groupcache.Options{
		Path:          statepaths.GroupCachePath(),
		TTL:           viper.GetDuration("cache.ttl"),
		MaxDiskAge:    viper.GetDuration("cache.max_disk_age"),
		FetchAttempts: viper.GetInt("cache.fetch_attempts"),
		BackoffBase:   viper.GetDuration("cache.backoff_base"),
		IsRateLimit:   whatsapp.IsRateLimit,
	})
	groups.Restore()

	detector := flood.NewDetector(
		viper.GetDuration("flood.window"),
		viper.GetInt("flood.min_count"),
		viper.GetFloat64("flood.no_caption_ratio"),
	)

	llmClient := openai.New(viper.GetString("llm.endpoint"), viper.GetString("llm.api_key"))
	if timeout := viper.GetDuration("llm.request_timeout"); timeout > 0 {
		llmClient.HTTP.Timeout = timeout
	}
	analyzer := analysis.New(llmClient, viper.GetString("llm.model"), logger)

	gate := intake.New(logger, detector, store, groups, analyzer, client, intake.Options{
		TargetChatID:    target,
		HistorySize:     viper.GetInt("gate.history_size"),
		DisableSelfTest: !viper.GetBool("whatsapp.self_test_enabled"),
	})

	client.Listen(whatsapp.Handlers{
		Message: messageHandler(ctx, logger, gate, client.DownloadImageDataURL),
		GroupChanged: func(groupJID string) {
			go func() {
				ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				groups.Invalidate(ictx, groupJID)
			}()
		},
	})

	var admin *adminserver.Server
	if viper.GetBool("server.enabled") {
		admin = adminserver.New(logger, gate, viper.GetString("server.bind"), viper.GetInt("server.port"))
		admin.Start()
	}

	persistEvery := viper.GetDuration("cache.persist_interval")
	if persistEvery <= 0 {
		persistEvery = 5 * time.Minute
	}
	ticker := time.NewTicker(persistEvery)
	defer ticker.Stop()

	logger.Info("bot_running", "target_group", target, "own_jid", client.OwnJID())

	for {
		select {
		case <-ticker.C:
			if err := groups.Persist(); err != nil {
				retryutil.AsyncRetry(logger, "group_cache_persist", 10*time.Second, time.Minute, func(context.Context) error {
					return groups.Persist()
				})
			}
		case <-ctx.Done():
			logger.Info("shutting_down")
			if admin != nil {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = admin.Shutdown(sctx)
				cancel()
			}
			if err := groups.Persist(); err != nil {
				logger.Warn("group_cache_persist_failed", "error", err.Error())
			}
			if err := store.Save(); err != nil {
				logger.Warn("created_events_save_failed", "error", err.Error())
			}
			return nil
		}
	}
}

// messageHandler adapts protocol events into gate messages. Each message is
// handled on its own goroutine: whatsmeow dispatches handlers serially from
// its receive loop, so a slow analysis call must not hold up intake
// filtering of the messages behind it.
func messageHandler(ctx context.Context, logger *slog.Logger, gate *intake.Gate, download func(context.Context, whatsapp.Event) (string, error)) func(whatsapp.Event) {
	return func(ev whatsapp.Event) {
		go func() {
			hctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			outcome := gate.Handle(hctx, intake.Message{
				ChatID:     ev.ChatJID,
				SenderID:   ev.SenderJID,
				SenderName: ev.SenderName,
				MessageID:  ev.MessageID,
				Text:       ev.Text,
				HasImage:   ev.HasImage,
				LoadImage: func(c context.Context) (string, error) {
					return download(c, ev)
				},
				FromSelf:   ev.FromMe,
				IsGroup:    ev.IsGroup,
				IsSelfChat: ev.IsSelfChat,
				SentAt:     ev.SentAt,
			})
			logger.Debug("message_handled",
				"chat_id", ev.ChatJID,
				"disposition", string(outcome.Disposition),
				"events_dispatched", outcome.EventsDispatched,
			)
		}()
	}
}
