package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/biblioteca-api/internal/dto"
	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/internal/service"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
	"github.com/noah-isme/biblioteca-api/pkg/logger"
	"github.com/noah-isme/biblioteca-api/pkg/response"
)

type searchCatalog interface {
	Search(ctx context.Context, query, category string) ([]models.BookRow, error)
}

type querySanitizer interface {
	SanitizeQuery(raw string) (string, error)
}

type captchaGate interface {
	IsVerified(sessionID string) bool
	Verify(sessionID, answer string) service.CaptchaVerification
}

// SearchHandler runs the full request pipeline for catalog searches.
type SearchHandler struct {
	catalog   searchCatalog
	sanitizer querySanitizer
	captcha   captchaGate
	logger    *zap.Logger
}

// NewSearchHandler builds a new handler.
func NewSearchHandler(catalog searchCatalog, sanitizer querySanitizer, captcha captchaGate, log *zap.Logger) *SearchHandler {
	return &SearchHandler{catalog: catalog, sanitizer: sanitizer, captcha: captcha, logger: log}
}

// Search godoc
// @Summary Search the catalog
// @Tags Catalog
// @Produce json
// @Param q query string true "Search term"
// @Param category query string false "Restrict to one category"
// @Param captcha query string false "Captcha answer for unverified sessions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search parameters"))
		return
	}

	query, err := h.sanitizer.SanitizeQuery(req.Query)
	if err != nil {
		response.Error(c, err)
		return
	}

	sess := sessionFromContext(c)
	if sess == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrSessionInvalid, ""))
		return
	}

	if !h.captcha.IsVerified(sess.ID) {
		if req.Captcha == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrCaptchaRequired, ""))
			return
		}
		if !h.verifyCaptcha(c, sess.ID, req.Captcha) {
			return
		}
	}

	books, err := h.catalog.Search(c.Request.Context(), query, req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SearchResult{Books: books, Count: len(books)})
}

// verifyCaptcha maps a verification outcome onto the response; it
// returns true when the pipeline may continue.
func (h *SearchHandler) verifyCaptcha(c *gin.Context, sessionID, answer string) bool {
	result := h.captcha.Verify(sessionID, answer)

	switch result.Status {
	case service.CaptchaVerifySuccess:
		if h.logger != nil {
			h.logger.Info("captcha verified", zap.String("session", logger.TruncateSessionID(sessionID)))
		}
		return true
	case service.CaptchaVerifyWrongAnswer:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaFailed,
			fmt.Sprintf("incorrect captcha, %d attempts left", result.AttemptsLeft)))
	case service.CaptchaVerifyExhausted:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaFailed, "too many failed attempts, request a new captcha"))
	case service.CaptchaVerifyExpired:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaExpired, ""))
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaRequired, ""))
	}

	if h.logger != nil {
		h.logger.Warn("captcha verification failed",
			zap.String("session", logger.TruncateSessionID(sessionID)),
			zap.String("ip", c.ClientIP()))
	}
	return false
}
