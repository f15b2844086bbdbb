package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/biblioteca-api/internal/middleware"
	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/internal/service"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
)

type fakeCaptchaManager struct {
	image     *models.CaptchaImage
	genErr    error
	result    service.CaptchaVerification
	sessionID string
	answer    string
}

func (f *fakeCaptchaManager) Generate(sessionID string) (*models.CaptchaImage, error) {
	f.sessionID = sessionID
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.image, nil
}

func (f *fakeCaptchaManager) Verify(sessionID, answer string) service.CaptchaVerification {
	f.sessionID = sessionID
	f.answer = answer
	return f.result
}

func captchaContext(t *testing.T, target string, withSession bool) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	if withSession {
		c.Set(middleware.SessionContextKey, &models.Session{ID: "sess-1"})
	}
	return c, rec
}

func TestCaptchaGenerateReturnsImage(t *testing.T) {
	manager := &fakeCaptchaManager{image: &models.CaptchaImage{
		Image:     "data:image/png;base64,iVBOR",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/generate", true)
	h.Generate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data:image/png;base64,")
	assert.Equal(t, "sess-1", manager.sessionID)
}

func TestCaptchaGenerateWithoutSession(t *testing.T) {
	h := NewCaptchaHandler(&fakeCaptchaManager{}, nil)

	c, rec := captchaContext(t, "/api/captcha/generate", false)
	h.Generate(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCaptchaGenerateHidesInternalError(t *testing.T) {
	manager := &fakeCaptchaManager{genErr: errors.New("png encoder blew up")}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/generate", true)
	h.Generate(c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "png encoder")
}

func TestCaptchaVerifySuccess(t *testing.T) {
	manager := &fakeCaptchaManager{result: service.CaptchaVerification{Status: service.CaptchaVerifySuccess}}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/verify?code=1234", true)
	h.Verify(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, "1234", manager.answer)
}

func TestCaptchaVerifyWrongAnswerReportsAttemptsLeft(t *testing.T) {
	manager := &fakeCaptchaManager{result: service.CaptchaVerification{
		Status:       service.CaptchaVerifyWrongAnswer,
		AttemptsLeft: 2,
	}}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/verify?code=0000", true)
	h.Verify(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), `"attempts_left":2`)
}

func TestCaptchaVerifyExhausted(t *testing.T) {
	manager := &fakeCaptchaManager{result: service.CaptchaVerification{Status: service.CaptchaVerifyExhausted}}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/verify?code=0000", true)
	h.Verify(c)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrCaptchaFailed.Code)
}

func TestCaptchaVerifyWithoutChallenge(t *testing.T) {
	manager := &fakeCaptchaManager{result: service.CaptchaVerification{Status: service.CaptchaVerifyNotFound}}
	h := NewCaptchaHandler(manager, nil)

	c, rec := captchaContext(t, "/api/captcha/verify?code=1234", true)
	h.Verify(c)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrCaptchaRequired.Code)
}

func TestCaptchaVerifyRejectsMalformedCode(t *testing.T) {
	h := NewCaptchaHandler(&fakeCaptchaManager{}, nil)

	for _, code := range []string{"", "12", "12345", "abcd"} {
		c, rec := captchaContext(t, "/api/captcha/verify?code="+code, true)
		h.Verify(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "code %q", code)
	}
}
