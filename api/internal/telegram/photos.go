package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jewelry-identifier/api/internal/session"
)

// acceptPhoto uploads the largest size Telegram offers. Photos always arrive as JPEG.
func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	ph := msg.Photo[len(msg.Photo)-1]
	r.upload(ctx, msg.Chat.ID, session.File{
		Name: ph.FileUniqueID + ".jpg",
		MIME: "image/jpeg",
		Size: int64(ph.FileSize),
		Open: r.opener(ctx, ph.FileID),
	})
}

// acceptDocument handles files sent without compression; their declared type is checked before download.
func (r *Router) acceptDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	r.upload(ctx, msg.Chat.ID, session.File{
		Name: doc.FileName,
		MIME: doc.MimeType,
		Size: int64(doc.FileSize),
		Open: r.opener(ctx, doc.FileID),
	})
}

func (r *Router) upload(ctx context.Context, chatID int64, f session.File) {
	sess, _ := r.Store.GetOrCreate(ctx, SessionKey(chatID))
	r.send(chatID, "Photo received, analyzing…")
	r.report(chatID, sess, sess.Upload(ctx, f))
}

// opener defers the download until the session has validated type and size.
func (r *Router) opener(ctx context.Context, fileID string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		url, err := r.Bot.GetFileDirectURL(fileID)
		if err != nil {
			return nil, err
		}
		return download(ctx, r.client(), url)
	}
}

func (r *Router) client() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return http.DefaultClient
}

func download(ctx context.Context, c *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, string(b))
	}
	return resp.Body, nil
}
