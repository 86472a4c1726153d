package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/sheets"
)

// Sources recorded in the journal.
const (
	SourceDashboard = "dashboard"
	SourceAPI       = "api"
	SourceCLI       = "cli"
	SourceInbox     = "inbox"
)

// TrackerService runs one user action end to end: extract, upsert, journal.
type TrackerService struct {
	Extractor *ExtractorService
	Upserter  *UpsertService
	Cache     *sheets.Cache
	Journal   Journal
	Logger    *zap.Logger
}

func NewTrackerService(extractor *ExtractorService, upserter *UpsertService, cache *sheets.Cache, journal Journal, logger *zap.Logger) *TrackerService {
	if journal == nil {
		journal = NopJournal{}
	}
	return &TrackerService{
		Extractor: extractor,
		Upserter:  upserter,
		Cache:     cache,
		Journal:   journal,
		Logger:    logger,
	}
}

// Extract previews what the model makes of text without touching the sheet.
func (s *TrackerService) Extract(ctx context.Context, text string) (*models.Candidate, error) {
	return s.Extractor.Extract(ctx, text)
}

// Submit extracts a candidate from text and merges it into the sheet.
func (s *TrackerService) Submit(ctx context.Context, source, text string) (*models.Candidate, *models.Outcome, error) {
	candidate, err := s.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := s.Upserter.Upsert(ctx, candidate)
	if err != nil {
		return candidate, nil, err
	}
	if outcome.Kind != models.OutcomeUnchanged {
		s.Cache.Invalidate()
	}

	if err := s.Journal.Record(ctx, source, candidate, outcome); err != nil {
		s.Logger.Warn("journal write failed", zap.Error(err), zap.String("company", candidate.Company()))
	}
	return candidate, outcome, nil
}

// List returns the sheet as the dashboard shows it.
func (s *TrackerService) List(ctx context.Context) (*models.Sheet, error) {
	return s.Cache.Read(ctx)
}

// Recent returns the latest journal entries.
func (s *TrackerService) Recent(ctx context.Context, limit int) ([]models.ApplicationEvent, error) {
	return s.Journal.Recent(ctx, limit)
}
