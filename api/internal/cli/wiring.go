package cli

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/analyze/gemini"
	genaiengine "jewelry-identifier/api/internal/analyze/genai"
	"jewelry-identifier/api/internal/analyze/openai"
	"jewelry-identifier/api/internal/config"
	"jewelry-identifier/api/internal/prompt"
	"jewelry-identifier/api/internal/session"
)

// buildEngines creates every engine that has a key. Both Gemini engines share GEMINI_API_KEY.
func buildEngines(cfg *config.Config) *analyze.Engines {
	engs := &analyze.Engines{}
	if cfg.GeminiAPIKey != "" {
		engs.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		engs.GenAI = genaiengine.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.OpenAIAPIKey != "" {
		o := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIBaseURL != "" {
			o = o.WithBaseURL(cfg.OpenAIBaseURL)
		}
		engs.OpenAI = o
	}
	return engs
}

// core is the engine set, prompt and session registry shared by every frontend.
type core struct {
	engines *analyze.Engines
	manager *analyze.Manager
	prompt  *prompt.Source
	store   *session.Store
}

func newCore(cfg *config.Config, log *zap.Logger) (*core, error) {
	engs := buildEngines(cfg)
	def, err := engs.GetEngine(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	src, err := prompt.Load(cfg.PromptFile, log)
	if err != nil {
		return nil, err
	}
	mgr := analyze.NewManager(def)
	fetcher := session.NewHTTPFetcher(&http.Client{Timeout: 30 * time.Second})
	defaultURL := cfg.ResolvedDefaultImageURL()

	store := session.NewStore(func(id string) *session.Session {
		return session.New(id, session.Deps{
			Analyzer:        mgr.For(id),
			Fetcher:         fetcher,
			DefaultImageURL: defaultURL,
			Prompt:          src,
			Logger:          log,
		})
	}, log)
	store.OnEvict(mgr.Forget)

	log.Info("engines ready",
		zap.Strings("available", engs.Names()),
		zap.String("default", def.Name()),
		zap.String("model", def.GetModel()))

	return &core{engines: engs, manager: mgr, prompt: src, store: store}, nil
}

const sweepEvery = 5 * time.Minute
