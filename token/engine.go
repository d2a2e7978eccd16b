package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type discriminates the three token kinds gatekeeper issues. The value is
// embedded in the scope claim and checked on every decode.
type Type string

const (
	// TypeAccess is a short-lived credential proving identity for a single
	// request window.
	TypeAccess Type = "access"
	// TypeRefresh is a longer-lived credential used only to mint new
	// access/refresh pairs; single-use per rotation.
	TypeRefresh Type = "refresh"
	// TypeEmailConfirm is a one-shot credential proving ownership of an
	// email address.
	TypeEmailConfirm Type = "email_confirm"
)

var (
	// ErrSignatureInvalid is returned when the token signature does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrWrongType is returned when a valid token of another type is presented.
	ErrWrongType = errors.New("token type mismatch")
	// ErrMalformed is returned for input that does not parse as a token at all.
	ErrMalformed = errors.New("token malformed")
)

// Config defines the signing material and per-type lifetimes.
//
// Config instances are intended to be set during initialization and then
// treated as immutable.
type Config struct {
	Secret          []byte
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	EmailConfirmTTL time.Duration
	Leeway          time.Duration

	// Now overrides the clock; nil means time.Now. Injected rather than
	// ambient so expiry behavior is deterministic under test.
	Now func() time.Time
}

// Claims is the decoded token payload. Fingerprint is populated only on
// refresh tokens.
type Claims struct {
	Scope       string `json:"scope"`
	Fingerprint string `json:"fpt,omitempty"`
	jwt.RegisteredClaims
}

// Type returns the token type carried in the scope claim.
func (c *Claims) Type() Type {
	return Type(c.Scope)
}

// Engine signs and verifies gatekeeper tokens.
//
// Engine instances are intended to be configured during initialization and
// then treated as immutable.
type Engine struct {
	config Config
}

// NewEngine validates cfg and returns a ready Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.EmailConfirmTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{config: cfg}, nil
}

// Issue signs a token of the given type for subject with an explicit ttl.
// Most callers want [Engine.IssueAccess], [Engine.IssueRefresh], or
// [Engine.IssueEmailConfirm], which apply the configured lifetimes.
func (e *Engine) Issue(subject string, typ Type, ttl time.Duration) (string, error) {
	return e.issue(subject, typ, "", ttl)
}

// IssueAccess signs an access token for subject with the configured access TTL.
func (e *Engine) IssueAccess(subject string) (string, error) {
	return e.issue(subject, TypeAccess, "", e.config.AccessTTL)
}

// IssueRefresh signs a refresh token for subject embedding the rotation
// fingerprint, with the configured refresh TTL.
func (e *Engine) IssueRefresh(subject, fingerprint string) (string, error) {
	if fingerprint == "" {
		return "", errors.New("refresh token requires a fingerprint")
	}
	return e.issue(subject, TypeRefresh, fingerprint, e.config.RefreshTTL)
}

// IssueEmailConfirm signs an email-confirmation token for subject with the
// configured confirmation TTL.
func (e *Engine) IssueEmailConfirm(subject string) (string, error) {
	return e.issue(subject, TypeEmailConfirm, "", e.config.EmailConfirmTTL)
}

func (e *Engine) issue(subject string, typ Type, fingerprint string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	switch typ {
	case TypeAccess, TypeRefresh, TypeEmailConfirm:
	default:
		return "", errors.New("unsupported token type")
	}

	now := e.config.Now()
	claims := Claims{
		Scope:       string(typ),
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    e.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.config.Secret)
}

// Decode verifies signature and expiry, then checks the embedded type
// against expected. Failures are always one of the package sentinels:
// [ErrSignatureInvalid], [ErrExpired], [ErrWrongType], or [ErrMalformed].
// Malformed input never panics.
func (e *Engine) Decode(tokenStr string, expected Type) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(e.config.Now),
		jwt.WithExpirationRequired(),
	}
	if e.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(e.config.Leeway))
	}
	if e.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(e.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return e.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if claims.Type() != expected {
		return nil, ErrWrongType
	}

	return claims, nil
}
