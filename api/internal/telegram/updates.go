package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Updater is the long-polling side of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Requester performs raw Bot API calls such as setWebhook.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// Poll long-polls Telegram and pushes updates to out until ctx is done.
// Errors are retried with a bounded delay and never end the loop.
func Poll(ctx context.Context, bot Updater, out chan<- tgbotapi.Update, log *zap.Logger) error {
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 15 * time.Second
	)
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			log.Info("polling stopped")
			return nil
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			if !sleep(ctx, d) {
				return nil
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			select {
			case out <- upd:
			case <-ctx.Done():
				return nil
			}
		}
		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Dispatch runs handle for each update, at most workers at a time, until ctx is done
// or updates is closed. In-flight handlers are waited for.
func Dispatch(ctx context.Context, updates <-chan tgbotapi.Update, workers int, handle func(context.Context, tgbotapi.Update)) error {
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case upd, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				handle(ctx, upd)
				return nil
			})
		}
	}
}

// WebhookPath derives a hard-to-guess path from the bot token.
func WebhookPath(token string) string {
	return "/webhook/" + shortHash(token)
}

func shortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	out := strconv.FormatUint(h.Sum64(), 16)
	return strings.Repeat("0", 16-len(out)) + out
}

// RegisterWebhook points Telegram at baseURL+path and drops updates queued meanwhile.
func RegisterWebhook(bot Requester, baseURL, path string) (string, error) {
	public := strings.TrimRight(baseURL, "/") + path
	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return "", err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return "", err
	}
	return public, nil
}

// DropWebhook removes a previously set webhook so getUpdates works.
func DropWebhook(bot Requester) error {
	_, err := bot.Request(tgbotapi.DeleteWebhookConfig{})
	return err
}

// WebhookHandler decodes Telegram's POSTs and queues them on out.
func WebhookHandler(out chan<- tgbotapi.Update, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			log.Warn("webhook: bad update", zap.Error(err))
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		select {
		case out <- upd:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}
