// Package verification implements the email code challenge that gates
// access to the application form.  Challenges live in process memory only
// and are lost on restart; a challenge that is never completed is removed
// either when its email is touched again or by the periodic Sweep.
package verification

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/utils"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 15 * time.Minute

var (
	ErrInvalidEmail      = apperr.Validation("a valid email address is required")
	ErrChallengeNotFound = apperr.Verification("no verification code was requested for this email")
	ErrChallengeExpired  = apperr.Verification("verification code has expired, please request a new one")
	ErrCodeMismatch      = apperr.Verification("verification code does not match")
)

type challenge struct {
	hash      []byte
	expiresAt time.Time
}

// Gate holds at most one live challenge per email.  It is safe for
// concurrent use; two racing requests for the same email resolve as
// last writer wins.
type Gate struct {
	mu         sync.Mutex
	challenges map[string]challenge

	ttl      time.Duration
	cost     int
	now      func() time.Time
	validate *validator.Validate
}

// Option customizes a Gate.
type Option func(*Gate)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option { return func(g *Gate) { g.ttl = d } }

// WithCost sets the bcrypt cost used for stored code hashes.
func WithCost(cost int) Option { return func(g *Gate) { g.cost = cost } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(g *Gate) { g.now = now } }

// NewGate returns an empty gate.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		challenges: make(map[string]challenge),
		ttl:        DefaultTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cost < bcrypt.MinCost || g.cost > bcrypt.MaxCost {
		g.cost = bcrypt.DefaultCost
	}
	if g.ttl <= 0 {
		g.ttl = DefaultTTL
	}
	return g
}

func normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// RequestCode issues a new six-digit code for email, replacing any
// challenge already held for it.  Only a bcrypt hash of the code is kept.
func (g *Gate) RequestCode(email string) (string, error) {
	email = normalize(email)
	if err := g.validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	code, err := utils.NewVerificationCode()
	if err != nil {
		return "", apperr.Storage(err)
	}
	hash, err := utils.HashCode(code, g.cost)
	if err != nil {
		return "", apperr.Storage(err)
	}

	g.mu.Lock()
	g.challenges[email] = challenge{hash: hash, expiresAt: g.now().Add(g.ttl)}
	g.mu.Unlock()
	return code, nil
}

// VerifyCode consumes the challenge for email when code matches.  An
// expired challenge is deleted; a mismatch leaves the challenge in place
// so the applicant can retry until it expires.
func (g *Gate) VerifyCode(email, code string) error {
	email = normalize(email)

	g.mu.Lock()
	ch, ok := g.challenges[email]
	if !ok {
		g.mu.Unlock()
		return ErrChallengeNotFound
	}
	if !g.now().Before(ch.expiresAt) {
		delete(g.challenges, email)
		g.mu.Unlock()
		return ErrChallengeExpired
	}
	g.mu.Unlock()

	// bcrypt is slow on purpose; compare outside the lock.
	if !utils.CompareCode(ch.hash, strings.TrimSpace(code)) {
		return ErrCodeMismatch
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.challenges[email]
	if !ok || !cur.expiresAt.Equal(ch.expiresAt) || string(cur.hash) != string(ch.hash) {
		// consumed or replaced while we were comparing
		return ErrChallengeNotFound
	}
	delete(g.challenges, email)
	return nil
}

// Sweep removes every expired challenge and returns how many were dropped.
func (g *Gate) Sweep() int {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for email, ch := range g.challenges {
		if !now.Before(ch.expiresAt) {
			delete(g.challenges, email)
			n++
		}
	}
	return n
}

// Len reports the number of challenges currently held.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.challenges)
}

// DefaultSweepInterval is used by Run when given a non-positive interval.
const DefaultSweepInterval = time.Minute

// Run sweeps every interval until ctx is cancelled.
func (g *Gate) Run(ctx context.Context, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		every = DefaultSweepInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := g.Sweep(); n > 0 {
				logger.Debug("expired verification challenges removed", "count", n, "remaining", g.Len())
			}
		}
	}
}
