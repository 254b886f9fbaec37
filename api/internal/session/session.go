// Package session owns the per-visitor state of the identifier: the current
// image, the current analysis text and the loading/error flags.
//
// A Session is driven by three operations. Bootstrap shows the bundled sample,
// Upload validates and stores a user photo and analyzes it, and Analyze re-runs
// the model on whatever image is current. Overlapping calls are not serialized:
// the last one to finish decides what the session shows.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/format"
	"jewelry-identifier/api/internal/jewel"
)

// State is the UI flag pair. Error is empty when there is nothing to show.
type State struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is a consistent copy of a session for rendering.
type Snapshot struct {
	ID       string          `json:"id"`
	Image    jewel.ImageData `json:"-"`
	ImageURL string          `json:"image,omitempty"`
	Analysis string          `json:"analysis,omitempty"`
	Blocks   []format.Block  `json:"blocks"`
	State    State           `json:"state"`
	Engine   string          `json:"engine,omitempty"`
}

// PromptSource yields the instruction sent with every image.
type PromptSource interface {
	Prompt() string
}

type staticPrompt string

func (p staticPrompt) Prompt() string { return string(p) }

// Deps wires a Session to the outside world. Zero values fall back to defaults.
type Deps struct {
	Analyzer        analyze.Analyzer
	Fetcher         Fetcher
	DefaultImageURL string
	Prompt          PromptSource
	Logger          *zap.Logger
}

type Session struct {
	ID string

	analyzer   analyze.Analyzer
	fetcher    Fetcher
	defaultURL string
	prompt     PromptSource
	log        *zap.Logger

	mu       sync.Mutex
	image    jewel.ImageData
	analysis string
	state    State
	seen     time.Time
}

func New(id string, d Deps) *Session {
	s := &Session{
		ID:         id,
		analyzer:   d.Analyzer,
		fetcher:    d.Fetcher,
		defaultURL: d.DefaultImageURL,
		prompt:     d.Prompt,
		log:        d.Logger,
		seen:       time.Now(),
	}
	if s.fetcher == nil {
		s.fetcher = NewHTTPFetcher(nil)
	}
	if s.prompt == nil {
		s.prompt = staticPrompt(jewel.Prompt)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.With(zap.String("session", id))
	return s
}

// Bootstrap loads the sample image and its canned analysis. No model is called.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	img, err := s.fetcher.Fetch(ctx, s.defaultURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		s.log.Warn("default image load failed", zap.String("url", s.defaultURL), zap.Error(err))
		s.state.Error = jewel.MsgDefaultImage
		return jewel.ResourceLoadError(err)
	}
	s.image = img
	s.analysis = jewel.DefaultAnalysis
	s.state.Error = ""
	return nil
}

// Upload validates f, replaces the current image and analyzes it.
// Validation and read failures leave the previous image and analysis alone.
func (s *Session) Upload(ctx context.Context, f File) error {
	s.touch()

	if !jewel.IsImageType(f.MIME) {
		return s.reject(jewel.ValidationError(jewel.MsgInvalidType), f)
	}
	if f.Size > jewel.MaxImageSize {
		return s.reject(jewel.ValidationError(jewel.MsgTooLarge), f)
	}

	img, err := readImage(f)
	if err != nil {
		return s.reject(err, f)
	}

	s.mu.Lock()
	s.image = img
	s.state.Error = ""
	s.mu.Unlock()

	s.log.Info("image accepted",
		zap.String("name", f.Name),
		zap.String("mime", img.MIME),
		zap.Int("bytes", len(img.Data)))

	return s.run(ctx, img)
}

// Analyze re-runs the model on the current image. Without an image it does nothing.
func (s *Session) Analyze(ctx context.Context) error {
	s.touch()
	s.mu.Lock()
	img := s.image
	s.mu.Unlock()
	if img.IsZero() {
		return nil
	}
	return s.run(ctx, img)
}

func (s *Session) run(ctx context.Context, img jewel.ImageData) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	start := time.Now()
	var (
		text string
		err  error
	)
	if s.analyzer == nil {
		err = errors.New("no analysis engine configured")
	} else {
		text, err = s.analyzer.Analyze(ctx, img, s.prompt.Prompt())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		aerr := jewel.AnalysisError(err)
		s.state.Error = jewel.UserMessage(aerr)
		s.log.Warn("analysis failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return aerr
	}
	s.analysis = text
	s.log.Info("analysis finished", zap.Duration("took", time.Since(start)), zap.Int("chars", len(text)))
	return nil
}

// Reject records an upload failure found before a File could be built,
// such as a request body over the size cap.
func (s *Session) Reject(err error) error {
	s.touch()
	return s.reject(err, File{})
}

func (s *Session) reject(err error, f File) error {
	s.mu.Lock()
	s.state.Error = jewel.UserMessage(err)
	s.mu.Unlock()
	s.log.Info("upload rejected",
		zap.String("name", f.Name),
		zap.String("mime", f.MIME),
		zap.Int64("size", f.Size),
		zap.Error(err))
	return err
}

func readImage(f File) (jewel.ImageData, error) {
	if f.Open == nil {
		return jewel.ImageData{}, jewel.ReadError(errors.New("file has no content"))
	}
	rc, err := f.Open()
	if err != nil {
		return jewel.ImageData{}, jewel.ReadError(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, jewel.MaxImageSize+1))
	if err != nil {
		return jewel.ImageData{}, jewel.ReadError(err)
	}
	if len(data) > jewel.MaxImageSize {
		return jewel.ImageData{}, jewel.ValidationError(jewel.MsgTooLarge)
	}
	if len(data) == 0 {
		return jewel.ImageData{}, jewel.ReadError(errors.New("empty file"))
	}
	return jewel.NewImageData(data, f.MIME), nil
}

// Snapshot copies the cells and formats the analysis.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:       s.ID,
		Image:    s.image,
		Analysis: s.analysis,
		State:    s.state,
	}
	s.mu.Unlock()

	snap.ImageURL = snap.Image.DataURL()
	snap.Blocks = []format.Block{}
	if snap.Analysis != "" {
		snap.Blocks = format.Analysis(snap.Analysis)
	}
	if s.analyzer != nil {
		snap.Engine = s.analyzer.Name()
	}
	return snap
}

func (s *Session) touch() {
	s.mu.Lock()
	s.seen = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}
