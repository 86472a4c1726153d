package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

var (
	ErrEmptyPrompt        = errors.New("please enter an update")
	ErrInvalidModelOutput = errors.New("failed to parse the AI's response")
)

// extraction is the validated shape of the model's answer.
type extraction struct {
	Action string `validate:"omitempty,oneof=CREATE UPDATE"`
	Status string `validate:"omitempty,application_status"`
}

type ExtractorService struct {
	LLM         Completer
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger

	validate *validator.Validate
}

func NewExtractorService(llm Completer, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *ExtractorService {
	v := validator.New()
	v.RegisterValidation("application_status", func(fl validator.FieldLevel) bool {
		_, ok := models.CanonicalStatus(fl.Field().String())
		return ok
	})
	return &ExtractorService{
		LLM:         llm,
		MaxAttempts: maxAttempts,
		RetryDelay:  retryDelay,
		Logger:      logger,
		validate:    v,
	}
}

// Extract asks the model to turn free text into a candidate record.
func (s *ExtractorService) Extract(ctx context.Context, text string) (*models.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPrompt
	}

	prompt := BuildExtractionPrompt(text)
	start := time.Now()
	var raw string
	err := retry(ctx, s.Logger, s.MaxAttempts, s.RetryDelay, isRateLimited, func() error {
		var e error
		raw, e = s.LLM.Complete(ctx, prompt)
		return e
	})
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("API rate limit still exceeded, please wait a minute before trying again: %w", err)
		}
		return nil, fmt.Errorf("API request error: %w", err)
	}
	s.Logger.Debug("model responded",
		zap.Duration("took", time.Since(start)),
		zap.Int("response_length", len(raw)))

	candidate, err := s.decode(raw)
	if err != nil {
		s.Logger.Warn("model output rejected", zap.Error(err), zap.String("raw", raw))
		return nil, err
	}
	if len(candidate.Extra) > 0 {
		s.Logger.Debug("model returned unknown keys", zap.Any("extra", candidate.Extra))
	}
	return candidate, nil
}

// decode parses the model's JSON object into a candidate. Strings are
// trimmed, null reads as empty, numbers and booleans are kept as text.
func (s *ExtractorService) decode(raw string) (*models.Candidate, error) {
	body := stripFences(raw)

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidModelOutput)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidModelOutput)
	}

	values := make(map[string]string, len(obj))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := scalar(obj[k])
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrInvalidModelOutput, k, err)
		}
		values[k] = v
	}

	candidate := models.NewCandidate()
	known := map[string]bool{"action": true, "company_name": true}
	for _, f := range models.Fields {
		known[string(f)] = true
		candidate.Set(f, values[string(f)])
	}
	if candidate.Company() == "" {
		candidate.Set(models.FieldCompany, values["company_name"])
	}
	for _, k := range keys {
		if !known[k] {
			if candidate.Extra == nil {
				candidate.Extra = make(map[string]string)
			}
			candidate.Extra[k] = values[k]
		}
	}

	ext := extraction{
		Action: strings.ToUpper(strings.TrimSpace(values["action"])),
		Status: candidate.Get(models.FieldStatus),
	}
	if err := s.validate.Struct(ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	candidate.Action = models.Action(ext.Action)
	if ext.Status != "" {
		status, _ := models.CanonicalStatus(ext.Status)
		candidate.Set(models.FieldStatus, status)
	}
	return candidate, nil
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

// stripFences removes a markdown code fence and any chatter around the
// outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if !strings.HasPrefix(s, "[") && start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
