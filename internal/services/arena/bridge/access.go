package bridge

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenParam is the query parameter that carries the launch token.
	TokenParam = "token"

	tokenIssuer   = "arena"
	tokenAudience = "arena-bridge"
	launchKeySize = 32
)

var (
	errOriginRefused = errors.New("origin is not allowed")
	errTokenMissing  = errors.New("launch token is required")
	errTokenInvalid  = errors.New("launch token is invalid")
	errTokenExpired  = errors.New("launch token is expired")
)

// Access decides which pages may attach. A request passes when its Origin
// header is empty or allow-listed and, if a launch key is set, it carries a
// token signed with that key.
type Access struct {
	origins map[string]struct{}
	key     []byte
	now     func() time.Time
}

// NewAccess allows the given origins. Entries are compared after
// normalization, so "http://LOCALHOST:3000/" matches "http://localhost:3000".
func NewAccess(origins ...string) *Access {
	a := &Access{origins: map[string]struct{}{}, now: time.Now}
	for _, origin := range origins {
		if normalized, ok := normalizeOrigin(origin); ok {
			a.origins[normalized] = struct{}{}
		}
	}
	return a
}

// WithLaunchKey requires a token signed with key on every upgrade.
func (a *Access) WithLaunchKey(key []byte) *Access {
	a.key = append([]byte(nil), key...)
	return a
}

// NewLaunchKey returns a random key for one process lifetime.
func NewLaunchKey() ([]byte, error) {
	key := make([]byte, launchKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("read launch key: %w", err)
	}
	return key, nil
}

// Origins lists the allowed origins.
func (a *Access) Origins() []string {
	out := make([]string, 0, len(a.origins))
	for origin := range a.origins {
		out = append(out, origin)
	}
	return out
}

// IssueToken signs a launch token valid for ttl.
func (a *Access) IssueToken(ttl time.Duration) (string, error) {
	if len(a.key) == 0 {
		return "", errors.New("launch key is not configured")
	}
	now := a.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign launch token: %w", err)
	}
	return signed, nil
}

// allowOrigin is the upgrader's origin check. Requests without an Origin
// header come from non-browser clients and are left to the token check.
func (a *Access) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, allowed := a.origins[normalized]
	return allowed
}

// authorize runs both checks and returns the HTTP status to refuse with.
func (a *Access) authorize(r *http.Request) (int, error) {
	if !a.allowOrigin(r) {
		return http.StatusForbidden, errOriginRefused
	}
	if len(a.key) == 0 {
		return http.StatusOK, nil
	}
	if err := a.verify(r.URL.Query().Get(TokenParam)); err != nil {
		return http.StatusUnauthorized, err
	}
	return http.StatusOK, nil
}

func (a *Access) verify(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errTokenMissing
	}
	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", errTokenInvalid, err)
	}
	if parsed.Issuer != tokenIssuer || !audienceContains(parsed.Audience, tokenAudience) {
		return fmt.Errorf("%w: issuer or audience mismatch", errTokenInvalid)
	}
	if parsed.ExpiresAt == nil {
		return fmt.Errorf("%w: exp is required", errTokenInvalid)
	}
	if !parsed.ExpiresAt.Time.After(a.now()) {
		return errTokenExpired
	}
	return nil
}

func audienceContains(audience jwt.ClaimStrings, want string) bool {
	for _, value := range audience {
		if value == want {
			return true
		}
	}
	return false
}

// normalizeOrigin reduces an origin to lower-case scheme://host[:port].
func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
