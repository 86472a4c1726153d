package dtos

import "github.com/justsurfingit/Application-Tracker/internal/models"

// SubmissionRequest carries the user's free text.
type SubmissionRequest struct {
	Text string `json:"text" binding:"required"`
}

// CandidateResponse is the extracted record keyed by JSON field name.
type CandidateResponse struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
	Extra  map[string]string `json:"extra,omitempty"`
}

type SubmissionResponse struct {
	Candidate CandidateResponse `json:"candidate"`
	Outcome   *models.Outcome   `json:"outcome"`
	Message   string            `json:"message"`
}

type SheetResponse struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func NewCandidateResponse(c *models.Candidate) CandidateResponse {
	fields := make(map[string]string, len(models.Fields))
	for _, f := range models.Fields {
		fields[string(f)] = c.Get(f)
	}
	return CandidateResponse{
		Action: string(c.Action),
		Fields: fields,
		Extra:  c.Extra,
	}
}
