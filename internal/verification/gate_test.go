package verification

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGate() (*Gate, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	return NewGate(WithClock(clock.Now), WithCost(bcrypt.MinCost)), clock
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	g, _ := newTestGate()

	code, err := g.RequestCode("a@b.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, g.VerifyCode("a@b.com", code))
	assert.ErrorIs(t, g.VerifyCode("a@b.com", code), ErrChallengeNotFound)
	assert.Equal(t, 0, g.Len())
}

func TestVerifyAfterExpiry(t *testing.T) {
	g, clock := newTestGate()

	code, err := g.RequestCode("a@b.com")
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	err = g.VerifyCode("a@b.com", code)
	assert.ErrorIs(t, err, ErrChallengeExpired)
	assert.Equal(t, apperr.KindVerification, apperr.KindOf(err))

	// the expired challenge is gone
	assert.ErrorIs(t, g.VerifyCode("a@b.com", code), ErrChallengeNotFound)
}

func TestVerifyJustBeforeExpiry(t *testing.T) {
	g, clock := newTestGate()

	code, err := g.RequestCode("a@b.com")
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Second)
	assert.NoError(t, g.VerifyCode("a@b.com", code))
}

func TestVerifyMismatchKeepsChallenge(t *testing.T) {
	g, _ := newTestGate()

	code, err := g.RequestCode("a@b.com")
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, g.VerifyCode("a@b.com", wrong), ErrCodeMismatch)
	assert.NoError(t, g.VerifyCode("a@b.com", code))
}

func TestNewRequestReplacesOldCode(t *testing.T) {
	g, _ := newTestGate()

	first, err := g.RequestCode("a@b.com")
	require.NoError(t, err)
	second, err := g.RequestCode("A@B.com ")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	if first != second {
		assert.ErrorIs(t, g.VerifyCode("a@b.com", first), ErrCodeMismatch)
	}
	assert.NoError(t, g.VerifyCode("a@b.com", second))
}

func TestRequestCodeRejectsBadEmail(t *testing.T) {
	g, _ := newTestGate()

	for _, email := range []string{"", "not-an-email", "a@"} {
		_, err := g.RequestCode(email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.Equal(t, 0, g.Len())
}

func TestVerifyUnknownEmail(t *testing.T) {
	g, _ := newTestGate()
	assert.ErrorIs(t, g.VerifyCode("nobody@b.com", "123456"), ErrChallengeNotFound)
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	g, clock := newTestGate()

	_, err := g.RequestCode("old@b.com")
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = g.RequestCode("new@b.com")
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, g.Sweep())
	assert.Equal(t, 1, g.Len())
	assert.ErrorIs(t, g.VerifyCode("old@b.com", "123456"), ErrChallengeNotFound)
}

func TestRunStopsOnCancel(t *testing.T) {
	g, _ := newTestGate()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunWithNonPositiveInterval(t *testing.T) {
	g, _ := newTestGate()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOutOfRangeCostFallsBackToDefault(t *testing.T) {
	g := NewGate(WithCost(bcrypt.MaxCost + 9))
	assert.Equal(t, bcrypt.DefaultCost, g.cost)

	code, err := g.RequestCode("jane@x.com")
	require.NoError(t, err)
	require.NoError(t, g.VerifyCode("jane@x.com", code))
}
