package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/pkg/config"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
)

// SheetsRepository reads catalog rows from the configured Google
// Spreadsheet. Access is read-only; every call carries a bounded
// timeout.
type SheetsRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetNames    []string
	timeout       time.Duration
	logger        *zap.Logger
}

type serviceAccountKey struct {
	Type                string `json:"type"`
	ProjectID           string `json:"project_id"`
	PrivateKeyID        string `json:"private_key_id"`
	PrivateKey          string `json:"private_key"`
	ClientEmail         string `json:"client_email"`
	ClientID            string `json:"client_id"`
	AuthURI             string `json:"auth_uri"`
	TokenURI            string `json:"token_uri"`
	AuthProviderCertURL string `json:"auth_provider_x509_cert_url"`
	ClientCertURL       string `json:"client_x509_cert_url"`
}

// NewSheetsRepository assembles service-account credentials from the
// individual env-provided fields and builds the Sheets client.
func NewSheetsRepository(ctx context.Context, cfg config.GoogleConfig, timeout time.Duration, logger *zap.Logger) (*SheetsRepository, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
	}

	var missing []string
	if cfg.ProjectID == "" {
		missing = append(missing, "GOOGLE_PROJECT_ID")
	}
	if cfg.PrivateKey == "" {
		missing = append(missing, "GOOGLE_PRIVATE_KEY")
	}
	if cfg.ClientEmail == "" {
		missing = append(missing, "GOOGLE_CLIENT_EMAIL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing google credentials: %s", strings.Join(missing, ", "))
	}

	key := serviceAccountKey{
		Type:                "service_account",
		ProjectID:           cfg.ProjectID,
		PrivateKeyID:        cfg.PrivateKeyID,
		PrivateKey:          strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n"),
		ClientEmail:         cfg.ClientEmail,
		ClientID:            cfg.ClientID,
		AuthURI:             cfg.AuthURI,
		TokenURI:            cfg.TokenURI,
		AuthProviderCertURL: cfg.AuthProviderCertURL,
		ClientCertURL:       cfg.ClientCertURL,
	}

	credJSON, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("marshal service account key: %w", err)
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credJSON),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("build sheets service: %w", err)
	}

	return &SheetsRepository{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetNames:    cfg.SheetNames,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// FetchRows reads every configured sheet tab, treating the first row
// as headers. Short rows are padded, blank rows skipped, and every
// row is tagged with its category (the tab name). A tab that fails to
// read is logged and skipped; only a total failure is an error.
func (r *SheetsRepository) FetchRows(ctx context.Context) ([]models.BookRow, error) {
	var all []models.BookRow
	var failures int

	for _, sheetName := range r.sheetNames {
		rows, err := r.fetchSheet(ctx, sheetName)
		if err != nil {
			failures++
			if r.logger != nil {
				r.logger.Warn("sheet read failed", zap.String("sheet", sheetName), zap.Error(err))
			}
			continue
		}
		all = append(all, rows...)
	}

	if failures == len(r.sheetNames) {
		return nil, appErrors.Wrap(fmt.Errorf("all %d sheets failed", failures),
			appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status,
			appErrors.ErrUpstreamUnavailable.Message)
	}

	return all, nil
}

func (r *SheetsRepository) fetchSheet(ctx context.Context, sheetName string) ([]models.BookRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rangeName := fmt.Sprintf("'%s'!A:Z", sheetName)
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get range %s: %w", rangeName, err)
	}

	if len(resp.Values) < 2 {
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = cellString(h)
	}

	rows := make([]models.BookRow, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make(models.BookRow, len(headers)+1)
		blank := true
		for i, header := range headers {
			var value string
			if i < len(raw) {
				value = cellString(raw[i])
			}
			if strings.TrimSpace(value) != "" {
				blank = false
			}
			row[header] = value
		}
		if blank {
			continue
		}
		row[models.CategoryColumn] = sheetName
		rows = append(rows, row)
	}

	return rows, nil
}

// SheetNames returns the configured tab names, which double as the
// public category list.
func (r *SheetsRepository) SheetNames() []string {
	return r.sheetNames
}

// TestConnection probes the spreadsheet and reports its title and
// available tabs. Used only by the development debug endpoint.
func (r *SheetsRepository) TestConnection(ctx context.Context) (title string, available []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	meta, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	names := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		if s.Properties != nil {
			names = append(names, s.Properties.Title)
		}
	}

	var spreadsheetTitle string
	if meta.Properties != nil {
		spreadsheetTitle = meta.Properties.Title
	}

	return spreadsheetTitle, names, nil
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
