// Package sheets reads and writes the application worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrWorksheetNotFound   = errors.New("worksheet not found")
)

// Worksheet is the remote table the tracker mutates.
type Worksheet interface {
	// Read returns the header row and every data row.
	Read(ctx context.Context) (*models.Sheet, error)
	// Append adds a row after the last non-empty row.
	Append(ctx context.Context, row []string) error
	// Update writes individual cells.
	Update(ctx context.Context, cells []models.Cell) error
}

// Google is a Worksheet backed by the Sheets API.
type Google struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string
}

// Locator names the spreadsheet to open. ID wins over Name; Name is looked
// up through Drive.
type Locator struct {
	ID        string
	Name      string
	Worksheet string
}

// Open resolves the spreadsheet and checks that the worksheet tab exists.
func Open(ctx context.Context, loc Locator, opts ...option.ClientOption) (*Google, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	id := loc.ID
	if id == "" {
		id, err = findByName(ctx, loc.Name, opts...)
		if err != nil {
			return nil, err
		}
	}

	ss, err := svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", id, err)
	}
	found := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == loc.Worksheet {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrWorksheetNotFound, loc.Worksheet)
	}

	return &Google{svc: svc, spreadsheetID: id, title: loc.Worksheet}, nil
}

func findByName(ctx context.Context, name string, opts ...option.ClientOption) (string, error) {
	dsvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create drive service: %w", err)
	}
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	list, err := dsvc.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, name)
	}
	return list.Files[0].Id, nil
}

func (g *Google) SpreadsheetID() string { return g.spreadsheetID }

func (g *Google) Read(ctx context.Context) (*models.Sheet, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, quoteTitle(g.title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}

	sheet := &models.Sheet{}
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		if i == 0 {
			sheet.Headers = row
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func (g *Google) Append(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, quoteTitle(g.title)+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (g *Google) Update(ctx context.Context, cells []models.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, c := range cells {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  quoteTitle(g.title) + "!" + A1(c.Row, c.Col),
			Values: [][]interface{}{{c.Value}},
		})
	}
	if _, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update cells: %w", err)
	}
	return nil
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// A1 converts a 1-based row and column to A1 notation.
func A1(row, col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return fmt.Sprintf("%s%d", letters, row)
}
