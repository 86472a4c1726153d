package services

import (
	"net/mail"
	"strings"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// MatcherService decides which sheet rows a candidate or an email refers to.
type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// normalize folds case and collapses runs of whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// FindRows returns the zero-based data rows matching company and job title,
// top to bottom. An empty job title, or a sheet without a Job Title column,
// matches on company alone.
func (s *MatcherService) FindRows(sheet *models.Sheet, company, jobTitle string) []int {
	companyCol := sheet.FieldColumn(models.FieldCompany)
	if companyCol < 0 {
		return nil
	}
	titleCol := sheet.FieldColumn(models.FieldJobTitle)

	wantCompany := normalize(company)
	wantTitle := normalize(jobTitle)
	if wantCompany == "" {
		return nil
	}

	var matches []int
	for i := range sheet.Rows {
		if normalize(sheet.Cell(i, companyCol)) != wantCompany {
			continue
		}
		if wantTitle != "" && titleCol >= 0 && normalize(sheet.Cell(i, titleCol)) != wantTitle {
			continue
		}
		matches = append(matches, i)
	}
	return matches
}

// Companies lists the distinct company names on the sheet in row order.
func (s *MatcherService) Companies(sheet *models.Sheet) []string {
	col := sheet.FieldColumn(models.FieldCompany)
	if col < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for i := range sheet.Rows {
		name := strings.TrimSpace(sheet.Cell(i, col))
		key := normalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// FindCompanyFromEmail tries to match an email to a company already on the
// sheet. It returns "" when nothing matches.
func (s *MatcherService) FindCompanyFromEmail(companies []string, subject, rawSender string) string {
	// "Stripe Recruiting <jobs@stripe.com>" -> name="Stripe Recruiting", addr="jobs@stripe.com"
	parsedAddr, err := mail.ParseAddress(rawSender)
	senderName := ""
	senderAddr := ""
	if err == nil {
		senderName = strings.ToLower(parsedAddr.Name)
		senderAddr = strings.ToLower(parsedAddr.Address)
	} else {
		senderAddr = strings.ToLower(rawSender)
	}

	subjectLower := strings.ToLower(subject)
	domain := ""
	if parts := strings.Split(senderAddr, "@"); len(parts) == 2 {
		domain = parts[1]
	}

	for _, company := range companies {
		companyName := strings.ToLower(strings.TrimSpace(company))
		// Very short names ("X", "Go") match everything.
		if len(companyName) < 3 {
			continue
		}

		if strings.Contains(subjectLower, companyName) {
			return company
		}
		if senderName != "" && strings.Contains(senderName, companyName) {
			return company
		}
		// Domains have no spaces: "Acme Corp" should still hit acmecorp.com.
		if domain != "" && strings.Contains(domain, strings.ReplaceAll(companyName, " ", "")) {
			return company
		}
	}
	return ""
}
