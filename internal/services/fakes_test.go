package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// memoryWorksheet is an in-process worksheet; rows are stored with the
// header row first, like the real sheet.
type memoryWorksheet struct {
	mu      sync.Mutex
	values  [][]string
	reads   int
	appends int
	updates int
	readErr error
	failOn  error
}

func newMemoryWorksheet(values ...[]string) *memoryWorksheet {
	return &memoryWorksheet{values: values}
}

func (m *memoryWorksheet) Read(context.Context) (*models.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	sheet := &models.Sheet{}
	for i, row := range m.values {
		cp := append([]string(nil), row...)
		if i == 0 {
			sheet.Headers = cp
			continue
		}
		sheet.Rows = append(sheet.Rows, cp)
	}
	return sheet, nil
}

func (m *memoryWorksheet) Append(_ context.Context, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.appends++
	m.values = append(m.values, append([]string(nil), row...))
	return nil
}

func (m *memoryWorksheet) Update(_ context.Context, cells []models.Cell) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.updates++
	for _, c := range cells {
		r, col := c.Row-1, c.Col-1
		for len(m.values) <= r {
			m.values = append(m.values, nil)
		}
		for len(m.values[r]) <= col {
			m.values[r] = append(m.values[r], "")
		}
		m.values[r][col] = c.Value
	}
	return nil
}

// row returns the 1-based sheet row padded to the header width.
func (m *memoryWorksheet) row(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.values[0]))
	copy(out, m.values[n-1])
	return out
}

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

var trackerHeaders = []string{
	"Company", "Job Title", "Contact", "Date Applied", "Status", "Notes",
	"Link to Application", "Salary", "Location", "Next Step Date",
	"Recruiter Contact", "Last Updated",
}
