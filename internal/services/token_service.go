package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecom/internal/metrics"
	"ecom/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// Token rejection reasons, as logged and counted.
const (
	ReasonEmpty                = "empty"
	ReasonMalformed            = "malformed"
	ReasonUnsupportedAlgorithm = "unsupported_algorithm"
	ReasonSignatureInvalid     = "signature_invalid"
	ReasonExpired              = "expired"
	ReasonInvalid              = "invalid"
)

// tokenClaims carries exactly {sub, iat, exp}. Expiry is checked against the service clock.
type tokenClaims struct {
	jwt.StandardClaims
	now func() time.Time
}

func (c *tokenClaims) Valid() error {
	if c.ExpiresAt == 0 {
		return jwt.NewValidationError("token has no expiry", jwt.ValidationErrorClaimsInvalid)
	}
	if c.now().Unix() >= c.ExpiresAt {
		return jwt.NewValidationError("token is expired", jwt.ValidationErrorExpired)
	}
	return nil
}

// TokenService issues and verifies HS256 bearer tokens whose subject is a username.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	metrics metrics.Recorder
}

// NewTokenService creates a new TokenService signing with secret. Tokens live for ttl.
func NewTokenService(secret string, ttl time.Duration, rec metrics.Recorder) *TokenService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		metrics: rec,
	}
}

// SetClock replaces the time source used for issuing and validating.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for username valid from now until now+TTL.
func (s *TokenService) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("cannot issue token: %w", models.ErrValidation)
	}
	now := s.now()
	exp := now.Add(s.ttl)
	expUnix := exp.Unix()
	if exp.Nanosecond() > 0 {
		// Round up so that second-granularity expiry never shortens the lifetime.
		expUnix++
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   username,
		IssuedAt:  now.Unix(),
		ExpiresAt: expUnix,
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Validate reports whether tokenString is correctly signed and unexpired. It never fails loudly;
// each rejection is logged with its reason.
func (s *TokenService) Validate(tokenString string) bool {
	_, err := s.parse(tokenString)
	return err == nil
}

// SubjectOf returns the username of a valid token and ErrInvalidToken for anything else.
func (s *TokenService) SubjectOf(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(tokenString string) (*tokenClaims, error) {
	if tokenString == "" {
		return nil, s.reject(ReasonEmpty, nil)
	}

	claims := &tokenClaims{now: s.now}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, s.reject(rejectionReason(err), err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, s.reject(ReasonInvalid, nil)
	}
	return claims, nil
}

func (s *TokenService) reject(reason string, cause error) error {
	s.metrics.RecordTokenRejected(reason)
	attrs := []any{slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	slog.Info("bearer token rejected", attrs...)
	return fmt.Errorf("%w: %s", models.ErrInvalidToken, reason)
}

func rejectionReason(err error) string {
	var ve *jwt.ValidationError
	if !errors.As(err, &ve) {
		return ReasonInvalid
	}
	switch {
	case ve.Errors&jwt.ValidationErrorMalformed != 0:
		return ReasonMalformed
	case ve.Errors&jwt.ValidationErrorUnverifiable != 0:
		return ReasonUnsupportedAlgorithm
	case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
		return ReasonSignatureInvalid
	case ve.Errors&jwt.ValidationErrorExpired != 0:
		return ReasonExpired
	default:
		return ReasonInvalid
	}
}
