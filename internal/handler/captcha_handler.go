package handler

import (
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

type captchaManager interface {
	Generate(sessionID string) (*models.CaptchaImage, error)
	Verify(sessionID, answer string) service.CaptchaVerification
}

// CaptchaHandler exposes challenge generation and verification.
type CaptchaHandler struct {
	captcha captchaManager
	logger  *zap.Logger
}

// NewCaptchaHandler builds a new handler.
func NewCaptchaHandler(captcha captchaManager, log *zap.Logger) *CaptchaHandler {
	return &CaptchaHandler{captcha: captcha, logger: log}
}

// Generate godoc
// @Summary Issue a new captcha challenge
// @Tags Captcha
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /api/captcha/generate [get]
func (h *CaptchaHandler) Generate(c *gin.Context) {
	sess := sessionFromContext(c)
	if sess == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrSessionInvalid, ""))
		return
	}

	image, err := h.captcha.Generate(sess.ID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("captcha generation failed", zap.Error(err))
		}
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, ""))
		return
	}

	response.OK(c, dto.CaptchaGenerateResult{Captcha: *image})
}

// Verify godoc
// @Summary Verify a captcha answer
// @Tags Captcha
// @Produce json
// @Param code query string true "Four digit answer"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /api/captcha/verify [get]
func (h *CaptchaHandler) Verify(c *gin.Context) {
	var req dto.CaptchaVerifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "captcha answer must be four digits"))
		return
	}

	sess := sessionFromContext(c)
	if sess == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrSessionInvalid, ""))
		return
	}

	result := h.captcha.Verify(sess.ID, req.Code)
	sessionLabel := logger.TruncateSessionID(sess.ID)

	switch result.Status {
	case service.CaptchaVerifySuccess:
		if h.logger != nil {
			h.logger.Info("captcha verified", zap.String("session", sessionLabel))
		}
		response.OK(c, dto.CaptchaVerifyResult{Success: true, Message: "captcha verified"})
	case service.CaptchaVerifyWrongAnswer:
		response.OK(c, dto.CaptchaVerifyResult{
			Success:      false,
			AttemptsLeft: result.AttemptsLeft,
			Message:      fmt.Sprintf("incorrect code, %d attempts left", result.AttemptsLeft),
		})
	case service.CaptchaVerifyExhausted:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaFailed, "too many failed attempts, request a new captcha"))
	case service.CaptchaVerifyExpired:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaExpired, ""))
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrCaptchaRequired, "no captcha for this session, generate one first"))
	}

	if result.Status != service.CaptchaVerifySuccess && h.logger != nil {
		h.logger.Warn("captcha verification failed",
			zap.String("session", sessionLabel),
			zap.String("ip", c.ClientIP()))
	}
}
