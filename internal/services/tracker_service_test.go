package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/sheets"
)

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, source string, c *models.Candidate, o *models.Outcome) error {
	args := m.Called(ctx, source, c, o)
	return args.Error(0)
}

func (m *MockJournal) Recent(ctx context.Context, limit int) ([]models.ApplicationEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ApplicationEvent), args.Error(1)
}

func newTestTracker(llm Completer, ws *memoryWorksheet, journal Journal) *TrackerService {
	upserter := newTestUpserter(ws)
	cache := sheets.NewCache(ws, time.Hour)
	return NewTrackerService(newTestExtractor(llm), upserter, cache, journal, zap.NewNop())
}

func TestTrackerService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should extract, append, journal and refresh the table", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return(databricksResponse, nil)
		journal := new(MockJournal)
		journal.On("Record", ctx, SourceAPI, mock.Anything, mock.MatchedBy(func(o *models.Outcome) bool {
			return o.Kind == models.OutcomeCreated && o.Row == 2
		})).Return(nil).Once()

		ws := newMemoryWorksheet(trackerHeaders)
		tracker := newTestTracker(llm, ws, journal)

		before, err := tracker.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, before.Rows)

		c, outcome, err := tracker.Submit(ctx, SourceAPI, "Just applied to Databricks")
		require.NoError(t, err)
		assert.Equal(t, "Databricks", c.Company())
		assert.Equal(t, models.OutcomeCreated, outcome.Kind)

		after, err := tracker.List(ctx)
		require.NoError(t, err)
		require.Len(t, after.Rows, 1)
		assert.Equal(t, "Databricks", after.Rows[0][0])
		journal.AssertExpectations(t)
	})

	t.Run("journal failures do not fail the submission", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return(databricksResponse, nil)
		journal := new(MockJournal)
		journal.On("Record", ctx, SourceCLI, mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, outcome, err := newTestTracker(llm, newMemoryWorksheet(trackerHeaders), journal).
			Submit(ctx, SourceCLI, "Just applied to Databricks")
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeCreated, outcome.Kind)
	})

	t.Run("a record without a company is returned with the error", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return(`{"action":"CREATE","job_title":"Engineer"}`, nil)
		journal := new(MockJournal)

		ws := newMemoryWorksheet(trackerHeaders)
		c, outcome, err := newTestTracker(llm, ws, journal).Submit(ctx, SourceDashboard, "applied somewhere")
		assert.ErrorIs(t, err, ErrNoCompany)
		assert.Nil(t, outcome)
		assert.Equal(t, "Engineer", c.JobTitle())
		assert.Equal(t, 0, ws.appends)
		journal.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("extraction errors stop before the sheet is read", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return("not json", nil)

		ws := newMemoryWorksheet(trackerHeaders)
		_, _, err := newTestTracker(llm, ws, nil).Submit(ctx, SourceDashboard, "hello")
		assert.ErrorIs(t, err, ErrInvalidModelOutput)
		assert.Equal(t, 0, ws.reads)
	})
}

func TestTrackerService_Recent(t *testing.T) {
	events := []models.ApplicationEvent{{ID: "1", Company: "Acme"}}
	journal := new(MockJournal)
	journal.On("Recent", mock.Anything, 10).Return(events, nil)

	tracker := newTestTracker(new(MockCompleter), newMemoryWorksheet(trackerHeaders), journal)
	got, err := tracker.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, events, got)

	nop := newTestTracker(new(MockCompleter), newMemoryWorksheet(trackerHeaders), nil)
	got, err = nop.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewEvent(t *testing.T) {
	c := candidate(models.ActionUpdate, "company", "Acme", "job_title", "Engineer")
	o := &models.Outcome{Kind: models.OutcomeUpdated, Row: 4, Cells: []models.Cell{
		{Header: "Status", Value: "Rejected"},
		{Header: "Last Updated", Value: "2026-10-14 09:30:00"},
	}}

	event := newEvent(SourceInbox, c, o)
	assert.Len(t, event.ID, 36)
	assert.Equal(t, "inbox", event.Source)
	assert.Equal(t, "Acme", event.Company)
	assert.Equal(t, "Engineer", event.JobTitle)
	assert.Equal(t, "updated", event.Kind)
	assert.Equal(t, 4, event.Row)
	assert.Equal(t, "Status,Last Updated", event.Headers)
	assert.Equal(t, "Status=Rejected; Last Updated=2026-10-14 09:30:00", event.Details)
}
