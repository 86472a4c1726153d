package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/justsurfingit/Application-Tracker/internal/config"
)

// SheetScopes are the scopes needed to open a spreadsheet by name and edit it.
var SheetScopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveReadonlyScope,
}

// ServiceAccountClient returns an HTTP client that signs requests as the
// configured service account.
func ServiceAccountClient(ctx context.Context, sa config.ServiceAccount, scopes ...string) (*http.Client, error) {
	key, err := sa.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode service account: %w", err)
	}
	if len(scopes) == 0 {
		scopes = SheetScopes
	}
	conf, err := google.JWTConfigFromJSON(key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return conf.Client(ctx), nil
}
