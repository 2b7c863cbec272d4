package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var (
	// ErrMissingCredential is reported when no Authorization value was supplied.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrMalformedCredential covers a missing "Bearer " prefix, an unparsable token or absent claims.
	ErrMalformedCredential = errors.New("auth: malformed credential")
	// ErrExpired signals that the token's expiry is in the past.
	ErrExpired = errors.New("auth: token expired")
	// ErrInvalidSignature covers signature mismatches and unexpected algorithms.
	ErrInvalidSignature = errors.New("auth: invalid signature")
)

// AuthError wraps one of the sentinel kinds above with the underlying cause.
type AuthError struct {
	Kind error
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Is lets errors.Is match the sentinel kind.
func (e *AuthError) Is(target error) bool { return e.Kind == target }

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(kind error, cause error) *AuthError {
	return &AuthError{Kind: kind, Err: cause}
}

// Identity is the authenticated principal behind a request or realtime session.
// Subject and Role come from the token; MemberID and Name are filled once the
// subject has been resolved against the member directory.
type Identity struct {
	Subject  string
	Role     string
	MemberID int64
	Name     string
}

// Claims is the token payload: the standard registered claims plus the role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HMAC signed bearer tokens.
type JWTValidator struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

// ParseSecret decodes a base64 encoded signing key.
func ParseSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("auth: secret must not be empty")
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("auth: decode secret: %w", err)
	}
	return key, nil
}

// NewJWTValidator constructs a validator for the shared secret with the given clock skew allowance.
func NewJWTValidator(secret []byte, leeway time.Duration) (*JWTValidator, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: secret must not be empty")
	}
	if leeway < 0 {
		leeway = 0
	}
	return &JWTValidator{secret: secret, leeway: leeway, now: time.Now}, nil
}

// WithClock overrides the validator clock, enabling deterministic unit tests.
func (v *JWTValidator) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	v.now = clock
}

// Validate checks an Authorization header value ("Bearer <token>") and returns
// the identity it carries. Every failure is an *AuthError.
func (v *JWTValidator) Validate(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, newAuthError(ErrMissingCredential, nil)
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, newAuthError(ErrMalformedCredential, errors.New("expected Bearer scheme"))
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return Identity{}, newAuthError(ErrMalformedCredential, errors.New("empty token"))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, classify(err)
	}

	subject := strings.TrimSpace(claims.Subject)
	role := strings.TrimSpace(claims.Role)
	if subject == "" || role == "" {
		return Identity{}, newAuthError(ErrMalformedCredential, errors.New("token lacks subject or role"))
	}
	return Identity{Subject: subject, Role: role}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newAuthError(ErrMalformedCredential, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newAuthError(ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newAuthError(ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return newAuthError(ErrMalformedCredential, err)
	default:
		return newAuthError(ErrInvalidSignature, err)
	}
}
