package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type sent struct {
	text  string
	mode  string
	photo bool
}

type fakeBot struct {
	mu      sync.Mutex
	out     []sent
	fileURL string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		b.out = append(b.out, sent{text: m.Text, mode: m.ParseMode})
	case tgbotapi.PhotoConfig:
		b.out = append(b.out, sent{text: m.Caption, photo: true})
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return b.fileURL + "/" + fileID, nil
}

func (b *fakeBot) messages() []sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sent(nil), b.out...)
}

func (b *fakeBot) last() sent {
	m := b.messages()
	if len(m) == 0 {
		return sent{}
	}
	return m[len(m)-1]
}

type fakeAnalyzer struct {
	name  string
	model string
	calls atomic.Int32
	reply string
	err   error
}

func (f *fakeAnalyzer) Name() string { return f.name }
func (f *fakeAnalyzer) GetModel() string {
	if f.model != "" {
		return f.model
	}
	return f.name + "-model"
}
func (f *fakeAnalyzer) WithModel(m string) analyze.Analyzer {
	return &fakeAnalyzer{name: f.name, model: m, reply: f.reply, err: f.err}
}
func (f *fakeAnalyzer) Analyze(context.Context, jewel.ImageData, string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

type fakeFetcher struct{ err error }

func (f fakeFetcher) Fetch(context.Context, string) (jewel.ImageData, error) {
	if f.err != nil {
		return jewel.ImageData{}, f.err
	}
	return jewel.NewImageData(jpegBytes, "image/jpeg"), nil
}

type fixture struct {
	r     *Router
	bot   *fakeBot
	def   *fakeAnalyzer
	alt   *fakeAnalyzer
	hits  atomic.Int32
	store *session.Store
}

func newFixture(t *testing.T, fetcher session.Fetcher) *fixture {
	t.Helper()
	fx := &fixture{
		def: &fakeAnalyzer{name: "gemini", reply: "1. Identification\n- Type: Tiara & Crown"},
		alt: &fakeAnalyzer{name: "gpt", reply: "1. Other"},
	}
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(jpegBytes)
	}))
	t.Cleanup(files.Close)

	mgr := analyze.NewManager(fx.def)
	fx.store = session.NewStore(func(id string) *session.Session {
		return session.New(id, session.Deps{Analyzer: mgr.For(id), Fetcher: fetcher})
	}, nil)
	fx.bot = &fakeBot{fileURL: files.URL}
	fx.r = &Router{
		Bot:     fx.bot,
		Store:   fx.store,
		Engines: &analyze.Engines{Gemini: fx.def, OpenAI: fx.alt},
		Manager: mgr,
		HTTP:    files.Client(),
	}
	return fx
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func TestStart_SendsSampleAndAnalysis(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), command(7, "/start"))

	msgs := fx.bot.messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].photo)
	assert.Equal(t, jewel.Title, msgs[0].text)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[1].mode)
	assert.Contains(t, msgs[1].text, "<b>Jewelry Identification:</b>")
	assert.Contains(t, msgs[1].text, "<b>Type:</b> Diamond Ring")
	assert.Zero(t, fx.def.calls.Load())

	_, ok := fx.store.Get(SessionKey(7))
	assert.True(t, ok)
}

func TestStart_AfterRejectedDocument(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), command(7, "/start"))
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 7},
		Document: &tgbotapi.Document{FileID: "doc", FileName: "ring.pdf", MimeType: "application/pdf", FileSize: 10},
	}})
	require.Equal(t, "⚠️ "+jewel.MsgInvalidType, fx.bot.last().text)

	before := len(fx.bot.messages())
	fx.r.HandleUpdate(context.Background(), command(7, "/start"))

	msgs := fx.bot.messages()[before:]
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].photo)
	assert.Contains(t, msgs[1].text, "<b>Type:</b> Diamond Ring")
}

func TestStart_DefaultImageUnreachable(t *testing.T) {
	fx := newFixture(t, fakeFetcher{err: errors.New("dial tcp: refused")})
	fx.r.HandleUpdate(context.Background(), command(7, "/start"))

	assert.Equal(t, "⚠️ "+jewel.MsgDefaultImage, fx.bot.last().text)
}

func TestPhoto_UploadsAndAnalyzes(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 9},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", FileSize: 100},
			{FileID: "large", FileUniqueID: "u1", FileSize: len(jpegBytes)},
		},
	}})

	assert.Equal(t, int32(1), fx.def.calls.Load())
	assert.Equal(t, int32(1), fx.hits.Load())
	last := fx.bot.last()
	assert.Equal(t, tgbotapi.ModeHTML, last.mode)
	assert.Contains(t, last.text, "<b>Type:</b> Tiara &amp; Crown")

	sess, ok := fx.store.Get(SessionKey(9))
	require.True(t, ok)
	assert.Equal(t, jpegBytes, sess.Snapshot().Image.Data)
}

func TestDocument_TooLargeIsNotDownloaded(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 9},
		Document: &tgbotapi.Document{FileID: "big", FileName: "ring.jpg", MimeType: "image/jpeg", FileSize: 25_000_000},
	}})

	assert.Equal(t, "⚠️ "+jewel.MsgTooLarge, fx.bot.last().text)
	assert.Zero(t, fx.hits.Load())
	assert.Zero(t, fx.def.calls.Load())
}

func TestDocument_NotAnImage(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 9},
		Document: &tgbotapi.Document{FileID: "doc", FileName: "ring.pdf", MimeType: "application/pdf", FileSize: 10},
	}})

	assert.Equal(t, "⚠️ "+jewel.MsgInvalidType, fx.bot.last().text)
	assert.Zero(t, fx.hits.Load())
}

func TestDocument_DownloadFailure(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 9},
		Document: &tgbotapi.Document{FileID: "missing", MimeType: "image/png", FileSize: 10},
	}})

	assert.Equal(t, "⚠️ "+jewel.MsgReadFailed, fx.bot.last().text)
	assert.Zero(t, fx.def.calls.Load())
}

func TestAnalyzeCommand(t *testing.T) {
	fx := newFixture(t, fakeFetcher{err: errors.New("down")})
	fx.r.HandleUpdate(context.Background(), command(3, "/analyze"))
	assert.Equal(t, "There is no image yet. Send a photo first.", fx.bot.last().text)
	assert.Zero(t, fx.def.calls.Load())

	fx = newFixture(t, fakeFetcher{})
	fx.def.err = errors.New("model overloaded")
	fx.r.HandleUpdate(context.Background(), command(3, "/analyze"))
	assert.Equal(t, int32(1), fx.def.calls.Load())
	assert.Equal(t, "⚠️ model overloaded", fx.bot.last().text)
}

func TestEngineCommand(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})

	fx.r.HandleUpdate(context.Background(), command(5, "/engine"))
	assert.Contains(t, fx.bot.last().text, "Current engine: gemini")

	fx.r.HandleUpdate(context.Background(), command(5, "/engine gpt"))
	assert.Equal(t, "✅ Engine: gpt (gpt-model).", fx.bot.last().text)
	assert.Equal(t, "gpt", fx.r.Manager.Get(SessionKey(5)).Name())
	assert.Equal(t, "gemini", fx.r.Manager.Get(SessionKey(6)).Name())

	fx.r.HandleUpdate(context.Background(), command(5, "/engine genai"))
	assert.Equal(t, "❌ engine genai is not configured", fx.bot.last().text)
}

func TestEngineCommand_ModelStaysInChat(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})

	fx.r.HandleUpdate(context.Background(), command(5, "/engine gpt gpt-4o"))
	assert.Equal(t, "✅ Engine: gpt (gpt-4o).", fx.bot.last().text)
	assert.Equal(t, "gpt-4o", fx.r.Manager.Get(SessionKey(5)).GetModel())

	fx.r.HandleUpdate(context.Background(), command(6, "/engine gpt"))
	assert.Equal(t, "✅ Engine: gpt (gpt-model).", fx.bot.last().text)
	assert.Equal(t, "gpt-model", fx.alt.GetModel())
}

func TestAboutAndUnknown(t *testing.T) {
	fx := newFixture(t, fakeFetcher{})

	fx.r.HandleUpdate(context.Background(), command(1, "/about"))
	last := fx.bot.last()
	assert.Equal(t, tgbotapi.ModeHTML, last.mode)
	assert.Contains(t, last.text, jewel.Features[0])
	assert.Contains(t, last.text, jewel.Disclaimer)

	fx.r.HandleUpdate(context.Background(), command(1, "/nope"))
	assert.Equal(t, "Unknown command", fx.bot.last().text)

	n := len(fx.bot.messages())
	fx.r.HandleUpdate(context.Background(), tgbotapi.Update{})
	assert.Len(t, fx.bot.messages(), n)
}
