package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-resume-checker/internal/analyses"
	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/llm/gemini"
	"ats-resume-checker/internal/llm/openai"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/services/health"
	"ats-resume-checker/internal/shared/config"
	"ats-resume-checker/internal/shared/server"
	"ats-resume-checker/internal/shared/storage/db"
	"ats-resume-checker/internal/shared/telemetry"
	"ats-resume-checker/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Reports reports.Store
	Uploads *uploads.TempStore
	LLM     llm.Client
	Service *analyses.Service
	Handler *analyses.Handler
	Health  *health.Service
	// Purger is nil when reports are not persisted.
	Purger *reports.Purger
}

// Build prepares every dependency and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg, db.DefaultServerOptions())
	if err != nil {
		return nil, err
	}
	if sqlDB != nil && isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store, err := BuildReportStore(cfg, sqlDB)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	llmClient, err := NewLLMClient(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Reports: store,
		Uploads: uploads.NewTempStore(cfg.UploadDir, cfg.MaxUploadBytes),
		LLM:     llmClient,
	}
	app.Service = &analyses.Service{
		Store:           store,
		LLM:             llmClient,
		AnalysisTimeout: cfg.AnalysisTimeout,
	}
	app.Handler = analyses.NewHandler(app.Service, app.Uploads)
	if store != nil {
		app.Purger = &reports.Purger{Store: store, Interval: cfg.ReportPurgeInterval}
	}
	app.Health = buildHealth(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.Handler,
		Health:          app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"llm_provider": cfg.LLMProvider,
		"report_store": storeKind(store),
		"upload_dir":   app.Uploads.Dir(),
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// ConnectDB opens the database for short-lived commands. An empty DATABASE_URL is an error.
func ConnectDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
}

func buildDB(ctx context.Context, cfg config.Config, defaults db.Options) (*sql.DB, error) {
	if cfg.ReportStore == "memory" || cfg.ReportStore == "none" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.ReportStore == "postgres" {
			return nil, errors.New("REPORT_STORE=postgres requires DATABASE_URL")
		}
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if isDevLike(cfg.Env) && cfg.ReportStore != "postgres" {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{"err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// BuildReportStore picks the report backend for REPORT_STORE. A nil store disables persistence.
func BuildReportStore(cfg config.Config, sqlDB *sql.DB) (reports.Store, error) {
	switch cfg.ReportStore {
	case "none":
		return nil, nil
	case "memory":
		return reports.NewMemoryStore(), nil
	case "postgres":
		if sqlDB == nil {
			return nil, errors.New("REPORT_STORE=postgres requires a database connection")
		}
		return &reports.PGStore{DB: sqlDB}, nil
	default:
		if sqlDB != nil {
			return &reports.PGStore{DB: sqlDB}, nil
		}
		if isDevLike(cfg.Env) {
			return reports.NewMemoryStore(), nil
		}
		telemetry.Warn("bootstrap.reports_disabled", map[string]any{"env": cfg.Env})
		return nil, nil
	}
}

// NewLLMClient builds the provider client selected by LLM_PROVIDER, wrapped with retries
// when LLM_MAX_RETRIES > 0. A missing API key yields a client that fails every call.
func NewLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	llmCfg := LLMConfig(cfg)
	if llmCfg.APIKey == "" {
		telemetry.Warn("bootstrap.llm_key_missing", map[string]any{"provider": llmCfg.Provider})
		return missingKeyClient(llmCfg.Provider), nil
	}

	var (
		client llm.Client
		err    error
	)
	switch llmCfg.Provider {
	case llm.ProviderGemini:
		client, err = gemini.NewClient(ctx, llmCfg)
	default:
		client, err = openai.NewClient(llmCfg, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", llmCfg.Provider, err)
	}
	return llm.WithRetry(client, cfg.LLMMaxRetries, llm.DefaultRetryBaseDelay), nil
}

// LLMConfig maps application config onto the provider config.
func LLMConfig(cfg config.Config) llm.Config {
	return llm.Config{
		Provider:        cfg.LLMProvider,
		APIKey:          cfg.APIKey(),
		Model:           cfg.LLMModel,
		MaxOutputTokens: cfg.LLMMaxOutputTokens,
		Temperature:     cfg.LLMTemperature,
		Timeout:         cfg.LLMTimeout,
	}.WithDefaults()
}

func missingKeyClient(provider string) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", &llm.UpstreamError{Provider: provider, Message: "API key is not configured"}
	})
}

func buildHealth(app *App) *health.Service {
	checks := []health.Check{
		{Name: "uploads", Probe: app.Uploads.Ping},
		{Name: "llm", Optional: true, Probe: func(ctx context.Context) error {
			if app.Config.APIKey() == "" {
				return errors.New("api key not configured")
			}
			return nil
		}},
	}
	reportCheck := health.Check{Name: "reports", Optional: true}
	if pinger, ok := app.Reports.(reports.Pinger); ok {
		reportCheck.Probe = pinger.Ping
	}
	checks = append(checks, reportCheck)
	return health.NewService(checks...)
}

func storeKind(store reports.Store) string {
	switch store.(type) {
	case nil:
		return "none"
	case *reports.PGStore:
		return "postgres"
	case *reports.MemoryStore:
		return "memory"
	default:
		return "custom"
	}
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
