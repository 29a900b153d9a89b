package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// verifiedEmailPurpose is stored in the "purpose" claim so that a token
// minted for some other use can never pass as proof of email ownership.
const verifiedEmailPurpose = "email_verified"

// ErrInvalidVerificationToken is returned for any token that is malformed,
// expired, signed with another key or minted for another purpose.
var ErrInvalidVerificationToken = errors.New("invalid verification token")

// VerificationToken is a signed HS256 JWT proving that the holder
// completed the email code challenge for Email.  Exp is when it stops
// being accepted by the submission endpoint.
type VerificationToken struct {
	Token string    // the serialized JWT string
	Email string    // normalized email the token vouches for
	Exp   time.Time // the UTC expiration time
}

// NewVerificationToken builds and signs a token for email.  The email is
// lower-cased and carried in the subject claim.
func NewVerificationToken(secret, email string, ttl time.Duration) (VerificationToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":     email,
		"purpose": verifiedEmailPurpose,
		"exp":     exp.Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return VerificationToken{}, err
	}
	return VerificationToken{Token: signed, Email: email, Exp: exp}, nil
}

// ParseVerificationToken validates raw and returns the email it vouches
// for.  Only HMAC-signed tokens are accepted.
func ParseVerificationToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidVerificationToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", ErrInvalidVerificationToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidVerificationToken
	}
	if p, _ := claims["purpose"].(string); p != verifiedEmailPurpose {
		return "", ErrInvalidVerificationToken
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return "", ErrInvalidVerificationToken
	}
	return email, nil
}
