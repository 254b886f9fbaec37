// Package telegram drives a session per chat from bot updates.
package telegram

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/format"
	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/render"
	"jewelry-identifier/api/internal/session"
)

// BotAPI is the part of *tgbotapi.BotAPI the router needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot     BotAPI
	Store   *session.Store
	Engines *analyze.Engines
	Manager *analyze.Manager
	HTTP    *http.Client
	Log     *zap.Logger
}

// SessionKey is the store key of a chat.
func SessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.HandleCommand(ctx, msg)
		return
	}

	switch {
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case msg.Document != nil:
		r.acceptDocument(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		r.send(cid, "Send me a photo of a piece of jewelry. Commands: /analyze, /about, /engine")
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		sess, created := r.Store.GetOrCreate(ctx, SessionKey(cid))
		if !created {
			_ = sess.Bootstrap(ctx)
		}
		snap := sess.Snapshot()
		if snap.State.Error != "" {
			r.send(cid, "⚠️ "+snap.State.Error)
			return
		}
		r.sendPhoto(cid, snap.Image, jewel.Title)
		r.sendAnalysis(cid, snap.Analysis)
		r.send(cid, jewel.Tagline+".\nSend a photo to identify your own piece.")

	case "analyze":
		sess, _ := r.Store.GetOrCreate(ctx, SessionKey(cid))
		if sess.Snapshot().Image.IsZero() {
			r.send(cid, "There is no image yet. Send a photo first.")
			return
		}
		r.send(cid, "Analyzing…")
		r.report(cid, sess, sess.Analyze(ctx))

	case "about":
		r.sendHTML(cid, aboutHTML())

	case "engine":
		r.handleEngineCommand(cid, msg.CommandArguments())

	case "help":
		r.send(cid, "Commands: /start, /analyze, /about, /engine [gemini|genai|gpt] [model]")

	default:
		r.send(cid, "Unknown command")
	}
}

// handleEngineCommand switches the engine for one chat.
//
//	/engine
//	/engine gemini [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, argLine string) {
	key := SessionKey(chatID)
	if r.Engines == nil || r.Manager == nil {
		r.send(chatID, "Engine switching is disabled.")
		return
	}
	args := strings.Fields(argLine)
	if len(args) == 0 {
		cur := r.Manager.For(key)
		r.send(chatID, "Current engine: "+cur.Name()+" ("+cur.GetModel()+")"+
			"\nAvailable: "+strings.Join(r.Engines.Names(), " | ")+
			"\nUsage: /engine <name> [model]")
		return
	}

	eng, err := r.Engines.GetEngine(args[0])
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}

	// the model override lives only in this chat's copy of the engine
	if len(args) > 1 {
		if ms, ok := eng.(analyze.ModelSwitcher); ok {
			eng = ms.WithModel(args[1])
		}
	}
	r.Manager.Set(key, eng)
	r.logger().Info("engine switched", zap.String("session", key), zap.String("engine", eng.Name()))
	r.send(chatID, "✅ Engine: "+eng.Name()+" ("+eng.GetModel()+").")
}

// report tells the chat how an upload or analysis ended.
func (r *Router) report(chatID int64, sess *session.Session, err error) {
	if err != nil {
		r.logger().Debug("telegram analysis", zap.String("session", sess.ID), zap.Error(err))
		r.send(chatID, "⚠️ "+jewel.UserMessage(err))
		return
	}
	r.sendAnalysis(chatID, sess.Snapshot().Analysis)
}

func (r *Router) sendAnalysis(chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, part := range render.TelegramHTML("Analysis Results", format.Analysis(text)) {
		r.sendHTML(chatID, part)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) sendHTML(chatID int64, html string) {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) sendPhoto(chatID int64, img jewel.ImageData, caption string) {
	if img.IsZero() {
		return
	}
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "jewelry" + extFor(img.MIME), Bytes: img.Data})
	p.Caption = caption
	if _, err := r.Bot.Send(p); err != nil {
		r.logger().Warn("telegram send photo", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func aboutHTML() string {
	var b strings.Builder
	b.WriteString("<b>" + jewel.Title + "</b>\n")
	b.WriteString(jewel.Tagline + ".\n\n")
	b.WriteString("<b>Why use it</b>\n")
	for _, f := range jewel.Features {
		b.WriteString("• " + f + "\n")
	}
	b.WriteString("\n<i>" + jewel.Disclaimer + "</i>")
	return b.String()
}

func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
