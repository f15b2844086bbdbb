package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mojocn/base64Captcha"
	"go.uber.org/zap"

	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/pkg/config"
	"github.com/noah-isme/biblioteca-api/pkg/logger"
)

// CaptchaVerifyStatus enumerates verification outcomes.
type CaptchaVerifyStatus int

const (
	// CaptchaVerifySuccess: correct answer, challenge consumed.
	CaptchaVerifySuccess CaptchaVerifyStatus = iota
	// CaptchaVerifyWrongAnswer: incorrect, attempts remain.
	CaptchaVerifyWrongAnswer
	// CaptchaVerifyExhausted: attempt budget spent, challenge deleted.
	CaptchaVerifyExhausted
	// CaptchaVerifyExpired: expiry clock elapsed or the challenge was
	// already consumed; a new generate is required.
	CaptchaVerifyExpired
	// CaptchaVerifyNotFound: the session holds no challenge.
	CaptchaVerifyNotFound
)

// CaptchaVerification is the result of one verify call.
type CaptchaVerification struct {
	Status       CaptchaVerifyStatus
	AttemptsLeft int
}

// CaptchaService issues and verifies session-bound digit challenges.
// Challenges live in an in-process map guarded by a mutex; a session
// owns at most one at a time.
type CaptchaService struct {
	mu         sync.Mutex
	challenges map[string]*models.CaptchaChallenge

	driver      *base64Captcha.DriverDigit
	expiry      time.Duration
	maxAttempts int
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewCaptchaService constructs the captcha manager. The digit driver
// renders a 4-digit code as a base64 PNG data URI.
func NewCaptchaService(cfg config.CaptchaConfig, metrics *MetricsService, log *zap.Logger) *CaptchaService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &CaptchaService{
		challenges:  make(map[string]*models.CaptchaChallenge),
		driver:      base64Captcha.NewDriverDigit(60, 160, 4, 0.6, 60),
		expiry:      expiry,
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      log,
		now:         time.Now,
	}
}

// Generate issues a new challenge for the session, discarding any
// prior unverified one and resetting the attempt count.
func (s *CaptchaService) Generate(sessionID string) (*models.CaptchaImage, error) {
	_, question, answer := s.driver.GenerateIdQuestionAnswer()
	item, err := s.driver.DrawCaptcha(question)
	if err != nil {
		return nil, fmt.Errorf("draw captcha: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.expiry)

	s.mu.Lock()
	s.sweepLocked(now)
	s.challenges[sessionID] = &models.CaptchaChallenge{
		SessionID: sessionID,
		Answer:    answer,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("captcha generated", zap.String("session", logger.TruncateSessionID(sessionID)))
	}

	return &models.CaptchaImage{
		Image:     item.EncodeB64string(),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks an answer against the session's challenge. A correct
// answer succeeds exactly once: the challenge is marked consumed and
// any replay reports Expired. Three wrong answers invalidate the
// challenge entirely.
func (s *CaptchaService) Verify(sessionID, answer string) CaptchaVerification {
	now := s.now()
	answer = strings.TrimSpace(answer)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[sessionID]
	if !ok {
		s.record("not_found")
		return CaptchaVerification{Status: CaptchaVerifyNotFound}
	}

	if ch.Expired(now) {
		delete(s.challenges, sessionID)
		s.record("expired")
		return CaptchaVerification{Status: CaptchaVerifyExpired}
	}

	if ch.Verified {
		// Single-use: a consumed challenge never verifies again.
		s.record("replayed")
		return CaptchaVerification{Status: CaptchaVerifyExpired}
	}

	if ch.Attempts >= s.maxAttempts {
		delete(s.challenges, sessionID)
		s.record("exhausted")
		return CaptchaVerification{Status: CaptchaVerifyExhausted}
	}

	if answer == ch.Answer {
		ch.Verified = true
		ch.Answer = ""
		s.record("success")
		return CaptchaVerification{Status: CaptchaVerifySuccess}
	}

	ch.Attempts++
	remaining := s.maxAttempts - ch.Attempts
	if remaining <= 0 {
		delete(s.challenges, sessionID)
		s.record("exhausted")
		return CaptchaVerification{Status: CaptchaVerifyExhausted}
	}

	s.record("failure")
	return CaptchaVerification{Status: CaptchaVerifyWrongAnswer, AttemptsLeft: remaining}
}

// IsVerified reports whether the session passed a captcha that has
// not yet expired. Expired records are removed on the way.
func (s *CaptchaService) IsVerified(sessionID string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[sessionID]
	if !ok {
		return false
	}
	if ch.Expired(now) {
		delete(s.challenges, sessionID)
		return false
	}
	return ch.Verified
}

// Cleanup removes expired challenges. Called lazily from Generate and
// periodically from the background sweep in main.
func (s *CaptchaService) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
}

func (s *CaptchaService) sweepLocked(now time.Time) {
	for id, ch := range s.challenges {
		if ch.Expired(now) {
			delete(s.challenges, id)
		}
	}
}

func (s *CaptchaService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCaptchaOutcome(outcome)
	}
}
