package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

const databricksResponse = `{ "action": "CREATE", "company": "Databricks", "job_title": "Senior Data Engineer", "status": "Applied", "recruiter_contact": "Jessica Miller", "contact": "", "date_applied": "", "notes": "", "link": "", "salary": "", "location": "", "next_step_date": "" }`

func newTestExtractor(llm Completer) *ExtractorService {
	return NewExtractorService(llm, 3, time.Millisecond, zap.NewNop())
}

func TestExtractorService_Extract(t *testing.T) {
	ctx := context.Background()
	input := "Just applied for a 'Senior Data Engineer' role at Databricks. Recruiter is Jessica Miller."

	t.Run("should return exactly the stubbed fields", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.MatchedBy(func(p string) bool {
			return strings.HasSuffix(p, "User text: '"+input+"'")
		})).Return(databricksResponse, nil).Once()

		c, err := newTestExtractor(llm).Extract(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, models.ActionCreate, c.Action)
		assert.Equal(t, map[models.Field]string{
			models.FieldCompany:          "Databricks",
			models.FieldJobTitle:         "Senior Data Engineer",
			models.FieldStatus:           "Applied",
			models.FieldRecruiterContact: "Jessica Miller",
		}, c.Values)
		assert.Empty(t, c.Extra)
		llm.AssertExpectations(t)
	})

	t.Run("should reject empty input without calling the model", func(t *testing.T) {
		llm := new(MockCompleter)
		_, err := newTestExtractor(llm).Extract(ctx, "   \n")
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("should retry rate limits then succeed", func(t *testing.T) {
		llm := new(MockCompleter)
		limited := &googleapi.Error{Code: 429, Message: "quota exceeded"}
		llm.On("Complete", ctx, mock.Anything).Return("", limited).Twice()
		llm.On("Complete", ctx, mock.Anything).Return(databricksResponse, nil).Once()

		c, err := newTestExtractor(llm).Extract(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "Databricks", c.Company())
		llm.AssertNumberOfCalls(t, "Complete", 3)
	})

	t.Run("should give up after the last rate-limited attempt", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return("", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"))

		_, err := newTestExtractor(llm).Extract(ctx, input)
		assert.ErrorContains(t, err, "rate limit")
		llm.AssertNumberOfCalls(t, "Complete", 3)
	})

	t.Run("should not retry other failures", func(t *testing.T) {
		llm := new(MockCompleter)
		llm.On("Complete", ctx, mock.Anything).Return("", errors.New("connection refused")).Once()

		_, err := newTestExtractor(llm).Extract(ctx, input)
		assert.ErrorContains(t, err, "connection refused")
		llm.AssertNumberOfCalls(t, "Complete", 1)
	})
}

func TestExtractorService_Decode(t *testing.T) {
	s := newTestExtractor(nil)

	t.Run("code fences and chatter are stripped", func(t *testing.T) {
		c, err := s.decode("Sure! Here it is:\n```json\n" + databricksResponse + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "Databricks", c.Company())
	})

	t.Run("company_name is an alias", func(t *testing.T) {
		c, err := s.decode(`{"action":"update","company_name":" Vercel ","status":"interview scheduled"}`)
		require.NoError(t, err)
		assert.Equal(t, "Vercel", c.Company())
		assert.Equal(t, models.ActionUpdate, c.Action)
		assert.Equal(t, "Interview Scheduled", c.Get(models.FieldStatus))
	})

	t.Run("null, numbers and unknown keys", func(t *testing.T) {
		c, err := s.decode(`{"company":"Acme","salary":120000,"notes":null,"priority":"high"}`)
		require.NoError(t, err)
		assert.Equal(t, "120000", c.Get(models.FieldSalary))
		assert.Equal(t, "", c.Get(models.FieldNotes))
		assert.Equal(t, models.ActionNone, c.Action)
		assert.Equal(t, map[string]string{"priority": "high"}, c.Extra)
	})

	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", "I could not find anything"},
		{"array", `[{"company":"Acme"}]`},
		{"null", `null`},
		{"nested value", `{"company":{"name":"Acme"}}`},
		{"unknown status", `{"company":"Acme","status":"Ghosted"}`},
		{"unknown action", `{"company":"Acme","action":"DELETE"}`},
		{"two objects", `{"company":"Acme"} {"company":"Globex"}`},
	}
	for _, tc := range testCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			_, err := s.decode(tc.raw)
			assert.ErrorIs(t, err, ErrInvalidModelOutput)
		})
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := BuildExtractionPrompt("  Applied to Vercel  ")
	assert.True(t, strings.HasSuffix(p, "User text: 'Applied to Vercel'"))
	assert.Contains(t, p, `"action", "company", "job_title", "contact", "date_applied"`)
	assert.Contains(t, p, "'Interview Scheduled'")
	assert.Contains(t, p, "empty string")
}
