// Package app assembles the tracker from configuration. Both the HTTP server
// and the CLI start here.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/justsurfingit/Application-Tracker/internal/auth"
	"github.com/justsurfingit/Application-Tracker/internal/config"
	"github.com/justsurfingit/Application-Tracker/internal/database"
	"github.com/justsurfingit/Application-Tracker/internal/logging"
	"github.com/justsurfingit/Application-Tracker/internal/services"
	"github.com/justsurfingit/Application-Tracker/internal/sheets"
)

// App holds the wired services.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Sheet   *sheets.Google
	Cache   *sheets.Cache
	Matcher *services.MatcherService
	Tracker *services.TrackerService
}

// NewCompleter picks the model backend named by cfg.LLMProvider.
func NewCompleter(ctx context.Context, cfg *config.Config) (services.Completer, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	switch cfg.LLMProvider {
	case config.ProviderGenAI:
		return services.NewGenAIService(ctx, cfg.GeminiAPIKey, cfg.Model, nil)
	default:
		return services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.Model)
	}
}

// New connects to the model, the spreadsheet and, when configured, the
// journal database.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("starting tracker",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("model", cfg.Model),
		zap.String("gemini_api_key", logging.Mask(cfg.GeminiAPIKey)),
		zap.String("service_account", logging.Mask(cfg.ServiceAccount.ClientEmail)),
		zap.String("worksheet", cfg.Worksheet))

	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing model: %w", err)
	}

	if err := cfg.RequireSheet(); err != nil {
		return nil, err
	}
	httpClient, err := auth.ServiceAccountClient(ctx, cfg.ServiceAccount, auth.SheetScopes...)
	if err != nil {
		return nil, err
	}
	sheet, err := sheets.Open(ctx, sheets.Locator{
		ID:        cfg.SpreadsheetID,
		Name:      cfg.SheetName,
		Worksheet: cfg.Worksheet,
	}, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	logger.Info("spreadsheet opened",
		zap.String("spreadsheet_id", sheet.SpreadsheetID()),
		zap.String("worksheet", cfg.Worksheet))

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Sheet:   sheet,
		Cache:   sheets.NewCache(sheet, cfg.CacheTTL),
		Matcher: services.NewMatcherService(),
	}

	var journal services.Journal
	if cfg.DatabaseURL != "" {
		a.DB, err = database.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		journal = services.NewJournalService(a.DB)
	} else {
		logger.Info("no database configured, journal disabled")
	}

	extractor := services.NewExtractorService(completer, cfg.LLMMaxAttempts, cfg.LLMRetryDelay, logger)
	upserter := services.NewUpsertService(sheet, a.Matcher, logger)
	a.Tracker = services.NewTrackerService(extractor, upserter, a.Cache, journal, logger)
	return a, nil
}

// InboxWatcher builds the Gmail watcher. prompt is used for the first
// interactive consent and may be nil for unattended runs.
func (a *App) InboxWatcher(ctx context.Context, prompt io.Reader, out io.Writer) (*services.EmailService, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("inbox watcher needs database_url to be set")
	}
	httpClient, err := auth.GmailClient(ctx, a.Config.GmailCredentialsFile, a.Config.GmailTokenFile, prompt, out)
	if err != nil {
		return nil, err
	}
	gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return services.NewEmailService(services.NewGormInboxStore(a.DB), gmailService, a.Tracker, a.Cache, a.Matcher, a.Config.InboxInterval, a.Logger), nil
}
