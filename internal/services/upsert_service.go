package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/sheets"
)

var (
	ErrNoCompany       = errors.New("AI could not identify a company name, please be more specific")
	ErrNoHeaderRow     = errors.New("the sheet has no header row, add column names in the first row")
	ErrNoCompanyColumn = errors.New("the sheet must have a 'Company' column")
)

// UpsertService merges candidate records into the worksheet.
type UpsertService struct {
	Sheet   sheets.Worksheet
	Matcher *MatcherService
	Now     func() time.Time
	Logger  *zap.Logger
}

func NewUpsertService(ws sheets.Worksheet, matcher *MatcherService, logger *zap.Logger) *UpsertService {
	return &UpsertService{
		Sheet:   ws,
		Matcher: matcher,
		Now:     time.Now,
		Logger:  logger,
	}
}

// Upsert updates the first row matching the candidate's company and job
// title, or appends a new row when none does.
func (s *UpsertService) Upsert(ctx context.Context, c *models.Candidate) (*models.Outcome, error) {
	company := c.Company()
	if company == "" {
		return nil, ErrNoCompany
	}

	sheet, err := s.Sheet.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read the sheet: %w", err)
	}
	if !hasHeaders(sheet) {
		return nil, ErrNoHeaderRow
	}
	if sheet.FieldColumn(models.FieldCompany) < 0 {
		return nil, ErrNoCompanyColumn
	}

	now := s.Now()
	matches := s.Matcher.FindRows(sheet, company, c.JobTitle())
	log := s.Logger.With(zap.String("company", company), zap.String("job_title", c.JobTitle()))

	if len(matches) == 0 {
		if c.Action == models.ActionUpdate {
			log.Info("no existing row to update, appending instead")
		}
		return s.create(ctx, sheet, c, now)
	}
	if len(matches) > 1 {
		log.Warn("several rows match, updating the topmost", zap.Int("matches", len(matches)))
	}
	outcome, err := s.update(ctx, sheet, matches[0], c, now)
	if err != nil {
		return nil, err
	}
	outcome.Matches = len(matches)
	return outcome, nil
}

func (s *UpsertService) create(ctx context.Context, sheet *models.Sheet, c *models.Candidate, now time.Time) (*models.Outcome, error) {
	row := make([]string, len(sheet.Headers))
	for _, f := range models.Fields {
		if col := sheet.FieldColumn(f); col >= 0 {
			row[col] = c.Get(f)
		}
	}
	if col := sheet.Column(models.HeaderDateApplied); col >= 0 && row[col] == "" {
		row[col] = now.Format(models.DateLayout)
	}
	if col := sheet.Column(models.HeaderLastUpdated); col >= 0 {
		row[col] = now.Format(models.TimestampLayout)
	}

	if err := s.Sheet.Append(ctx, row); err != nil {
		return nil, fmt.Errorf("an error occurred while updating the sheet: %w", err)
	}

	// Append lands after the last non-empty row; the number is a best guess
	// if the sheet has gaps.
	rowNum := models.RowNumber(len(sheet.Rows))
	outcome := &models.Outcome{Kind: models.OutcomeCreated, Row: rowNum, Company: c.Company()}
	for i, v := range row {
		if v != "" {
			outcome.Cells = append(outcome.Cells, models.Cell{Row: rowNum, Col: i + 1, Header: sheet.Headers[i], Value: v})
		}
	}
	s.Logger.Info("row appended", zap.String("company", c.Company()), zap.Int("row", rowNum))
	return outcome, nil
}

func (s *UpsertService) update(ctx context.Context, sheet *models.Sheet, idx int, c *models.Candidate, now time.Time) (*models.Outcome, error) {
	rowNum := models.RowNumber(idx)
	outcome := &models.Outcome{Kind: models.OutcomeUnchanged, Row: rowNum, Company: c.Company()}

	for _, f := range models.Fields {
		// The key cells already match; rewriting them would only change case.
		if f == models.FieldCompany || f == models.FieldJobTitle {
			continue
		}
		v := c.Get(f)
		col := sheet.FieldColumn(f)
		if v == "" || col < 0 || sheet.Cell(idx, col) == v {
			continue
		}
		outcome.Cells = append(outcome.Cells, models.Cell{Row: rowNum, Col: col + 1, Header: sheet.Headers[col], Value: v})
	}

	if len(outcome.Cells) == 0 {
		s.Logger.Info("no new information to update", zap.String("company", c.Company()), zap.Int("row", rowNum))
		return outcome, nil
	}

	if col := sheet.Column(models.HeaderLastUpdated); col >= 0 {
		outcome.Cells = append(outcome.Cells, models.Cell{
			Row:    rowNum,
			Col:    col + 1,
			Header: sheet.Headers[col],
			Value:  now.Format(models.TimestampLayout),
		})
	}

	if err := s.Sheet.Update(ctx, outcome.Cells); err != nil {
		return nil, fmt.Errorf("an error occurred while updating the sheet: %w", err)
	}
	outcome.Kind = models.OutcomeUpdated
	s.Logger.Info("row updated",
		zap.String("company", c.Company()),
		zap.Int("row", rowNum),
		zap.Int("cells", len(outcome.Cells)))
	return outcome, nil
}

func hasHeaders(sheet *models.Sheet) bool {
	for _, h := range sheet.Headers {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}
