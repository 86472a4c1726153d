package models

import (
	"strings"
	"time"
)

// Field is one column of an application record.
type Field string

const (
	FieldCompany          Field = "company"
	FieldJobTitle         Field = "job_title"
	FieldContact          Field = "contact"
	FieldDateApplied      Field = "date_applied"
	FieldStatus           Field = "status"
	FieldNotes            Field = "notes"
	FieldLink             Field = "link"
	FieldSalary           Field = "salary"
	FieldLocation         Field = "location"
	FieldNextStepDate     Field = "next_step_date"
	FieldRecruiterContact Field = "recruiter_contact"
)

// System columns the tracker stamps itself.
const (
	HeaderLastUpdated = "Last Updated"
	HeaderDateApplied = "Date Applied"

	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Fields lists the record fields in the order the model is asked for them.
var Fields = []Field{
	FieldCompany,
	FieldJobTitle,
	FieldContact,
	FieldDateApplied,
	FieldStatus,
	FieldNotes,
	FieldLink,
	FieldSalary,
	FieldLocation,
	FieldNextStepDate,
	FieldRecruiterContact,
}

// Headers are the sheet column names a field may be stored under, most
// specific first.
func (f Field) Headers() []string {
	switch f {
	case FieldCompany:
		return []string{"Company"}
	case FieldJobTitle:
		return []string{"Job Title"}
	case FieldContact:
		return []string{"Contact"}
	case FieldDateApplied:
		return []string{HeaderDateApplied}
	case FieldStatus:
		return []string{"Status"}
	case FieldNotes:
		return []string{"Notes"}
	case FieldLink:
		return []string{"Link to Application", "Link"}
	case FieldSalary:
		return []string{"Salary"}
	case FieldLocation:
		return []string{"Location"}
	case FieldNextStepDate:
		return []string{"Next Step Date"}
	case FieldRecruiterContact:
		return []string{"Recruiter Contact"}
	}
	return nil
}

// Action is the model's guess at what the user meant.
type Action string

const (
	ActionNone   Action = ""
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

// Statuses the model is allowed to pick from.
var Statuses = []string{
	"Applied",
	"Assessment",
	"Interview Scheduled",
	"Offer Received",
	"Rejected",
	"Followed Up",
	"Withdrew",
}

// CanonicalStatus maps a case-insensitive status to its canonical spelling.
func CanonicalStatus(s string) (string, bool) {
	for _, status := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), status) {
			return status, true
		}
	}
	return "", false
}

// Candidate is a partial record extracted from free text, pending merge into
// the sheet. Missing fields are absent from Values.
type Candidate struct {
	Action Action           `json:"action"`
	Values map[Field]string `json:"values"`
	// Extra holds keys the model returned that are not record fields.
	Extra map[string]string `json:"extra,omitempty"`
}

func NewCandidate() *Candidate {
	return &Candidate{Values: make(map[Field]string)}
}

// Get returns the trimmed value of f, or "".
func (c *Candidate) Get(f Field) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Values[f])
}

// Set stores v for f; an empty value deletes the field.
func (c *Candidate) Set(f Field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		delete(c.Values, f)
		return
	}
	c.Values[f] = v
}

func (c *Candidate) Company() string  { return c.Get(FieldCompany) }
func (c *Candidate) JobTitle() string { return c.Get(FieldJobTitle) }

// Sheet is a snapshot of the worksheet: the header row and the data rows
// below it.
type Sheet struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Column returns the zero-based index of header, matched case-insensitively,
// or -1.
func (s *Sheet) Column(header string) int {
	for i, h := range s.Headers {
		if strings.EqualFold(strings.TrimSpace(h), header) {
			return i
		}
	}
	return -1
}

// FieldColumn resolves the column a field is stored in, or -1.
func (s *Sheet) FieldColumn(f Field) int {
	for _, h := range f.Headers() {
		if i := s.Column(h); i >= 0 {
			return i
		}
	}
	return -1
}

// Cell returns the value at data row r and column c; short rows read as "".
func (s *Sheet) Cell(r, c int) string {
	if r < 0 || r >= len(s.Rows) || c < 0 || c >= len(s.Rows[r]) {
		return ""
	}
	return s.Rows[r][c]
}

// RowNumber converts a zero-based data row index to the 1-based sheet row.
func RowNumber(dataIndex int) int {
	return dataIndex + 2
}

// Cell is a single cell write, addressed by 1-based row and column.
type Cell struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Header string `json:"header"`
	Value  string `json:"value"`
}

type OutcomeKind string

const (
	OutcomeCreated   OutcomeKind = "created"
	OutcomeUpdated   OutcomeKind = "updated"
	OutcomeUnchanged OutcomeKind = "unchanged"
)

// Outcome describes what an upsert did to the sheet.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Row     int         `json:"row"`
	Company string      `json:"company"`
	Matches int         `json:"matches"`
	Cells   []Cell      `json:"cells,omitempty"`
}

// ApplicationEvent is a journal entry for one upsert.
type ApplicationEvent struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Source   string `gorm:"index" json:"source"`
	Company  string `gorm:"index" json:"company"`
	JobTitle string `json:"job_title"`
	Kind     string `json:"kind"`
	Row      int    `json:"row"`
	Headers  string `gorm:"type:text" json:"headers"`
	Details  string `gorm:"type:text" json:"details"`
}

// InboxState holds the Gmail history cursor for the inbox watcher.
type InboxState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	Mailbox       string `gorm:"uniqueIndex;not null" json:"mailbox"`
	LastHistoryID uint64 `json:"last_history_id"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}
