package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/biblioteca-api/pkg/config"
)

func captchaAt(t *testing.T, at time.Time) (*CaptchaService, *time.Time) {
	t.Helper()
	now := at
	s := NewCaptchaService(config.CaptchaConfig{Expiry: 15 * time.Minute, MaxAttempts: 3}, nil, nil)
	s.now = func() time.Time { return now }
	return s, &now
}

// answerFor reads the stored answer so tests can submit correct and
// incorrect codes deterministically.
func answerFor(s *CaptchaService, sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[sessionID]
	if !ok {
		return ""
	}
	return ch.Answer
}

func wrongAnswer(correct string) string {
	if strings.HasPrefix(correct, "0") {
		return "1" + correct[1:]
	}
	return "0" + correct[1:]
}

func TestGenerateProducesDataURI(t *testing.T) {
	s, _ := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	img, err := s.Generate("sess-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.Image, "data:image/png;base64,"))
	assert.Len(t, answerFor(s, "sess-1"), 4)
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	s, _ := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	answer := answerFor(s, "sess-1")

	v := s.Verify("sess-1", answer)
	assert.Equal(t, CaptchaVerifySuccess, v.Status)
	assert.True(t, s.IsVerified("sess-1"))

	// Replaying the same answer must not succeed again.
	v = s.Verify("sess-1", answer)
	assert.Equal(t, CaptchaVerifyExpired, v.Status)
}

func TestVerifyThreeWrongAnswersInvalidate(t *testing.T) {
	s, _ := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	answer := answerFor(s, "sess-1")
	bad := wrongAnswer(answer)

	v := s.Verify("sess-1", bad)
	assert.Equal(t, CaptchaVerifyWrongAnswer, v.Status)
	assert.Equal(t, 2, v.AttemptsLeft)

	v = s.Verify("sess-1", bad)
	assert.Equal(t, CaptchaVerifyWrongAnswer, v.Status)
	assert.Equal(t, 1, v.AttemptsLeft)

	v = s.Verify("sess-1", bad)
	assert.Equal(t, CaptchaVerifyExhausted, v.Status)

	// A fourth attempt, even with the correct answer, cannot succeed.
	v = s.Verify("sess-1", answer)
	assert.Equal(t, CaptchaVerifyNotFound, v.Status)
	assert.False(t, s.IsVerified("sess-1"))
}

func TestVerifyAfterExpiryReturnsExpired(t *testing.T) {
	s, now := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	answer := answerFor(s, "sess-1")

	*now = now.Add(16 * time.Minute)

	v := s.Verify("sess-1", answer)
	assert.Equal(t, CaptchaVerifyExpired, v.Status)

	// The challenge is gone; another try reports not found.
	v = s.Verify("sess-1", answer)
	assert.Equal(t, CaptchaVerifyNotFound, v.Status)
}

func TestGenerateReplacesPriorChallenge(t *testing.T) {
	s, _ := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	first := answerFor(s, "sess-1")
	bad := wrongAnswer(first)
	s.Verify("sess-1", bad)
	s.Verify("sess-1", bad)

	_, err = s.Generate("sess-1")
	require.NoError(t, err)
	second := answerFor(s, "sess-1")

	// Fresh challenge, fresh attempt budget.
	v := s.Verify("sess-1", wrongAnswer(second))
	assert.Equal(t, CaptchaVerifyWrongAnswer, v.Status)
	assert.Equal(t, 2, v.AttemptsLeft)
}

func TestVerifiedFlagExpiresWithChallenge(t *testing.T) {
	s, now := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	v := s.Verify("sess-1", answerFor(s, "sess-1"))
	require.Equal(t, CaptchaVerifySuccess, v.Status)
	require.True(t, s.IsVerified("sess-1"))

	*now = now.Add(16 * time.Minute)
	assert.False(t, s.IsVerified("sess-1"))
}

func TestCleanupRemovesExpiredChallenges(t *testing.T) {
	s, now := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.Generate("sess-1")
	require.NoError(t, err)
	_, err = s.Generate("sess-2")
	require.NoError(t, err)

	*now = now.Add(16 * time.Minute)
	s.Cleanup()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.challenges)
}

func TestVerifyUnknownSession(t *testing.T) {
	s, _ := captchaAt(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	v := s.Verify("ghost", "1234")
	assert.Equal(t, CaptchaVerifyNotFound, v.Status)
	assert.False(t, s.IsVerified("ghost"))
}
