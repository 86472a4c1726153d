package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

type fakeModel struct {
	opts   llms.CallOptions
	prompt string
	reply  string
	err    error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, o := range options {
		o(&f.opts)
	}
	for _, m := range messages {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				f.prompt += t.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLLMService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("asks for JSON at temperature zero", func(t *testing.T) {
		model := &fakeModel{reply: `{"company":"Acme"}`}
		s := &LLMService{Client: model}

		out, err := s.Complete(ctx, "extract this")
		require.NoError(t, err)
		assert.Equal(t, `{"company":"Acme"}`, out)
		assert.Equal(t, "extract this", model.prompt)
		assert.True(t, model.opts.JSONMode)
		assert.Zero(t, model.opts.Temperature)
	})

	t.Run("empty answers are errors", func(t *testing.T) {
		s := &LLMService{Client: &fakeModel{reply: "  "}}
		_, err := s.Complete(ctx, "x")
		assert.ErrorIs(t, err, errEmptyCompletion)
	})

	t.Run("model errors pass through", func(t *testing.T) {
		boom := errors.New("unavailable")
		s := &LLMService{Client: &fakeModel{err: boom}}
		_, err := s.Complete(ctx, "x")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("requires an API key", func(t *testing.T) {
		_, err := NewLLMService(ctx, "", "gemini-2.5-flash")
		assert.Error(t, err)
	})
}

func TestGenAIService_Complete(t *testing.T) {
	ctx := context.Background()

	var gotPath, gotBody string
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(b)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"company\":\"Acme\"}"}]}}]}`)
	}))
	defer srv.Close()

	s, err := NewGenAIService(ctx, "test-key", "gemini-2.5-flash", &genai.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := s.Complete(ctx, "extract this")
	require.NoError(t, err)
	assert.Equal(t, `{"company":"Acme"}`, out)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent"), gotPath)
	assert.Contains(t, gotBody, "application/json")
	assert.Contains(t, gotBody, "recruiter_contact")

	status = http.StatusTooManyRequests
	_, err = s.Complete(ctx, "extract this")
	require.Error(t, err)
	assert.True(t, isRateLimited(err))
}

func TestCandidateSchema(t *testing.T) {
	schema := candidateSchema()
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Len(t, schema.Properties, 12)
	assert.Equal(t, []string{"CREATE", "UPDATE"}, schema.Properties["action"].Enum)
	assert.Contains(t, schema.Required, "next_step_date")
}
