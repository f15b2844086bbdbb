package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/biblioteca-api/pkg/config"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
	"github.com/noah-isme/biblioteca-api/pkg/response"
)

type connectionTester interface {
	TestConnection(ctx context.Context) (title string, available []string, err error)
}

// DebugHandler exposes development-only diagnostics. Its routes are
// not registered in production.
type DebugHandler struct {
	cfg    *config.Config
	tester connectionTester
}

// NewDebugHandler builds a new handler.
func NewDebugHandler(cfg *config.Config, tester connectionTester) *DebugHandler {
	return &DebugHandler{cfg: cfg, tester: tester}
}

// Config reports which credential fields are set. Values are only
// echoed for non-sensitive fields; the private key never leaves the
// process.
func (h *DebugHandler) Config(c *gin.Context) {
	g := h.cfg.Google

	response.OK(c, gin.H{
		"config_status": gin.H{
			"GOOGLE_SPREADSHEET_ID":  g.SpreadsheetID != "",
			"GOOGLE_PROJECT_ID":      g.ProjectID != "",
			"GOOGLE_PRIVATE_KEY":     g.PrivateKey != "",
			"GOOGLE_PRIVATE_KEY_ID":  g.PrivateKeyID != "",
			"GOOGLE_CLIENT_EMAIL":    g.ClientEmail != "",
			"GOOGLE_CLIENT_ID":       g.ClientID != "",
			"GOOGLE_CLIENT_CERT_URL": g.ClientCertURL != "",
		},
		"config_values": gin.H{
			"GOOGLE_SPREADSHEET_ID": valueOrNotSet(g.SpreadsheetID),
			"GOOGLE_PROJECT_ID":     valueOrNotSet(g.ProjectID),
			"GOOGLE_CLIENT_EMAIL":   valueOrNotSet(g.ClientEmail),
		},
		"sheets_to_read": g.SheetNames,
	})
}

// TestConnection probes the spreadsheet and lists its tabs against
// the configured expectation.
func (h *DebugHandler) TestConnection(c *gin.Context) {
	if h.tester == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "sheets client not configured"))
		return
	}

	title, available, err := h.tester.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   err.Error(),
			"solutions": []string{
				"verify the GOOGLE_SPREADSHEET_ID is correct",
				"share the document with the service account email",
				"check that the Sheets API is enabled for the project",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"spreadsheet_title": title,
		"available_sheets":  available,
		"expected_sheets":   h.cfg.Google.SheetNames,
	})
}

func valueOrNotSet(v string) string {
	if v == "" {
		return "NOT_SET"
	}
	return v
}
