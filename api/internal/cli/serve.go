package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jewelry-identifier/api/internal/httpserver"
	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/telegram"
	"jewelry-identifier/api/internal/web"
)

const botWorkers = 8

func newServeCommand(a *app) *cobra.Command {
	var noBot bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app, plus the Telegram bot when a token is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), !noBot)
		},
	}
	cmd.Flags().BoolVar(&noBot, "no-bot", false, "do not start the Telegram bot even if TELEGRAM_BOT_TOKEN is set")
	return cmd
}

func newBotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run only the Telegram bot (webhook when WEBHOOK_URL is set, long polling otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.bot(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context, withBot bool) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	c, err := newCore(a.cfg, a.log)
	if err != nil {
		return err
	}
	h, err := web.New(c.store, c.engines, c.manager, a.log.Named("web"))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", h.Routes())

	g, gctx := errgroup.WithContext(ctx)
	if withBot && a.cfg.TelegramBotToken != "" {
		if err := a.startBot(gctx, g, c, mux); err != nil {
			return err
		}
	}
	a.startBackground(gctx, g, c)
	g.Go(func() error {
		return httpserver.Run(gctx, ":"+a.cfg.Port, mux, a.log)
	})
	return g.Wait()
}

// bot serves only what the bot needs over HTTP: health, the sample image and the webhook.
func (a *app) bot(ctx context.Context) error {
	if err := a.cfg.ValidateBot(); err != nil {
		return err
	}
	c, err := newCore(a.cfg, a.log)
	if err != nil {
		return err
	}
	h, err := web.New(c.store, c.engines, c.manager, a.log.Named("web"))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Health("ok"))
	mux.HandleFunc("GET "+jewel.DefaultImagePath, h.ServeDefaultImage)

	g, gctx := errgroup.WithContext(ctx)
	if err := a.startBot(gctx, g, c, mux); err != nil {
		return err
	}
	a.startBackground(gctx, g, c)
	g.Go(func() error {
		return httpserver.Run(gctx, ":"+a.cfg.Port, mux, a.log)
	})
	return g.Wait()
}

// startBot connects to Telegram and starts update delivery. In webhook mode it mounts the
// webhook on mux, so it must run before the server starts.
func (a *app) startBot(ctx context.Context, g *errgroup.Group, c *core, mux *http.ServeMux) error {
	log := a.log.Named("telegram")
	bot, err := tgbotapi.NewBotAPI(a.cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	router := &telegram.Router{
		Bot:     bot,
		Store:   c.store,
		Engines: c.engines,
		Manager: c.manager,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Log:     log,
	}
	updates := make(chan tgbotapi.Update, 64)

	if base := strings.TrimSpace(a.cfg.WebhookURL); base != "" {
		path := telegram.WebhookPath(bot.Token)
		public, err := telegram.RegisterWebhook(bot, base, path)
		if err != nil {
			return fmt.Errorf("telegram webhook: %w", err)
		}
		mux.Handle("POST "+path, telegram.WebhookHandler(updates, log))
		log.Info("webhook mode", zap.String("bot", bot.Self.UserName), zap.String("url", public))
	} else {
		if err := telegram.DropWebhook(bot); err != nil {
			log.Warn("delete webhook", zap.Error(err))
		}
		log.Info("polling mode", zap.String("bot", bot.Self.UserName))
		g.Go(func() error {
			return telegram.Poll(ctx, bot, updates, log)
		})
	}

	g.Go(func() error {
		return telegram.Dispatch(ctx, updates, botWorkers, router.HandleUpdate)
	})
	return nil
}

func (a *app) startBackground(ctx context.Context, g *errgroup.Group, c *core) {
	g.Go(func() error {
		return c.prompt.Watch(ctx)
	})
	g.Go(func() error {
		c.store.RunSweeper(ctx, sweepEvery, a.cfg.SessionIdleTTL)
		return nil
	})
}
