package dto

import "github.com/noah-isme/biblioteca-api/internal/models"

// CaptchaVerifyRequest binds the query parameters of
// GET /api/captcha/verify. The answer is always four digits.
type CaptchaVerifyRequest struct {
	Code string `form:"code" binding:"required,len=4,numeric"`
}

// CaptchaGenerateResult wraps a freshly issued challenge image.
type CaptchaGenerateResult struct {
	Captcha models.CaptchaImage `json:"captcha"`
}

// CaptchaVerifyResult reports the outcome of a verification attempt.
type CaptchaVerifyResult struct {
	Success      bool   `json:"success"`
	AttemptsLeft int    `json:"attempts_left,omitempty"`
	Message      string `json:"message,omitempty"`
}
