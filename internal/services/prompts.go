package services

import (
	"fmt"
	"strings"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

const extractionPrompt = `
You are a precise data extraction robot. Your only task is to analyze user text and respond with a valid JSON object. Do not add any conversational text or explanations.

Your JSON output MUST use these exact keys: "action", %s.

**Rules:**
- "action": 'CREATE' or 'UPDATE'.
- "status": Must be one of: %s.
- "date_applied" and "next_step_date": copy the date as the user wrote it.
- For any unmentioned field, the value must be an empty string "".

**Examples:**
1. User text: 'Just applied for a 'Senior Data Engineer' role at Databricks. Recruiter is Jessica Miller.'
Correct JSON output: { "action": "CREATE", "company": "Databricks", "job_title": "Senior Data Engineer", "status": "Applied", "recruiter_contact": "Jessica Miller", "contact": "", "date_applied": "", "notes": "", "link": "", "salary": "", "location": "", "next_step_date": "" }

2. User text: 'Update on Vercel: interview scheduled for next Tuesday for the Senior Frontend Engineer role.'
Correct JSON output: { "action": "UPDATE", "company": "Vercel", "job_title": "Senior Frontend Engineer", "status": "Interview Scheduled", "next_step_date": "next Tuesday", "contact": "", "date_applied": "", "notes": "", "link": "", "salary": "", "location": "", "recruiter_contact": "" }
`

// BuildExtractionPrompt wraps the user's text in the fixed instruction
// template.
func BuildExtractionPrompt(text string) string {
	keys := make([]string, len(models.Fields))
	for i, f := range models.Fields {
		keys[i] = fmt.Sprintf("%q", string(f))
	}
	statuses := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		statuses[i] = "'" + s + "'"
	}
	instructions := fmt.Sprintf(extractionPrompt, strings.Join(keys, ", "), strings.Join(statuses, ", "))
	return fmt.Sprintf("%s\n\nUser text: '%s'", instructions, strings.TrimSpace(text))
}
