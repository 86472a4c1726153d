package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/Application-Tracker/internal/config"
	"github.com/justsurfingit/Application-Tracker/internal/models"
)

func writeSecrets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReadText(t *testing.T) {
	text, err := readText([]string{"Applied", "to", "Acme"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "Applied to Acme", text)

	text, err = readText(nil, strings.NewReader("Rejected by Globex\n"))
	require.NoError(t, err)
	assert.Equal(t, "Rejected by Globex\n", text)
}

func TestCommandsNeedAnAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := writeSecrets(t, `GSHEET_NAME = "Job Tracker"`)

	for _, name := range []string{"extract", "submit"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, "", name, "--config", path, "Applied to Acme")
			assert.ErrorIs(t, err, config.ErrMissingAPIKey)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "", "list", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestPrintSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSheet(&buf, &models.Sheet{Headers: []string{"Company", "Status"}}))
	assert.Contains(t, buf.String(), "Your sheet is empty")

	buf.Reset()
	require.NoError(t, printSheet(&buf, &models.Sheet{
		Headers: []string{"Company", "Status"},
		Rows:    [][]string{{"Acme", "Applied"}, {"Globex"}},
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Company  Status", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "Acme     Applied", strings.TrimRight(lines[1], " "))
	assert.Equal(t, "Globex", strings.TrimRight(lines[2], " "))
}

func TestPrintOutcome(t *testing.T) {
	c := models.NewCandidate()
	c.Action = models.ActionUpdate
	c.Set(models.FieldCompany, "Acme")
	c.Set(models.FieldStatus, "Rejected")

	var buf bytes.Buffer
	printOutcome(&buf, c, &models.Outcome{Kind: models.OutcomeUpdated, Row: 3, Matches: 2, Cells: []models.Cell{
		{Row: 3, Col: 5, Header: "Status", Value: "Rejected"},
	}})
	assert.Equal(t, "row 3:\n  Status (E3) = Rejected\nnote: 2 rows matched, the topmost was used\n", buf.String())

	buf.Reset()
	printCandidate(&buf, c)
	assert.Equal(t, "action: UPDATE\ncompany: Acme\nstatus: Rejected\n", buf.String())
}
