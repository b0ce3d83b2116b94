package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultStateTTL bounds how long a state token stays valid after
	// issuance.
	DefaultStateTTL = 600 * time.Second
	// DefaultStateMaxSkew tolerates apparently-future issued-at values
	// caused by clock drift between issuing and validating hosts.
	DefaultStateMaxSkew = 60 * time.Second
)

// StateToken is the decoded flow context smuggled through the provider
// redirect.
type StateToken struct {
	Kind     FlowKind
	IssuedAt time.Time
	TenantID *int64
}

type stateClaims struct {
	Type     string `json:"type"`
	IssuedAt int64  `json:"iat"`
	TeamID   *int64 `json:"team_id,omitempty"`
}

// StateTokenCodec encodes and decodes the signed, time-bounded state
// payload round-tripped through the OAuth provider. Tokens are
// deterministic for identical inputs and a second-granularity timestamp,
// and carry no replay protection beyond the validity window.
type StateTokenCodec struct {
	secret   []byte
	registry *FlowRegistry
	ttl      time.Duration
	maxSkew  time.Duration
	now      func() time.Time
}

func NewStateTokenCodec(secret []byte, registry *FlowRegistry) (*StateTokenCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("core: state token secret is required")
	}
	if registry == nil {
		registry = NewFlowRegistry()
	}
	return &StateTokenCodec{
		secret:   append([]byte(nil), secret...),
		registry: registry,
		ttl:      DefaultStateTTL,
		maxSkew:  DefaultStateMaxSkew,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// WithClock overrides the codec clock; used by tests and by hosts that
// centralize time.
func (c *StateTokenCodec) WithClock(now func() time.Time) *StateTokenCodec {
	if c != nil && now != nil {
		c.now = now
	}
	return c
}

// Encode validates the tenant id against the flow's requirement class
// and returns the URL-safe signed token.
func (c *StateTokenCodec) Encode(kind FlowKind, tenantID *int64) (string, error) {
	if c == nil {
		return "", fmt.Errorf("core: state token codec is not configured")
	}
	if !c.registry.IsValid(kind) {
		return "", fmt.Errorf("%w: %q", ErrStateUnknownFlow, kind)
	}
	switch c.registry.Requirement(kind) {
	case TenantRequired:
		if tenantID == nil {
			return "", fmt.Errorf("%w: flow %q", ErrStateTenantMissing, kind)
		}
	case TenantForbidden:
		if tenantID != nil {
			return "", fmt.Errorf("%w: flow %q", ErrStateTenantPresent, kind)
		}
	}

	claims := stateClaims{
		Type:     string(kind),
		IssuedAt: c.now().Unix(),
		TeamID:   tenantID,
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("core: encode state claims: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies signature, shape, window, and tenant requirement, in
// that order, and returns the payload. Signature failures are always
// reported as ErrStateSignature regardless of what was tampered.
func (c *StateTokenCodec) Decode(token string) (StateToken, error) {
	if c == nil {
		return StateToken{}, fmt.Errorf("core: state token codec is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return StateToken{}, ErrStateEmpty
	}
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok {
		return StateToken{}, fmt.Errorf("%w: missing signature segment", ErrStateMalformed)
	}
	if !hmac.Equal([]byte(c.sign(encoded)), []byte(signature)) {
		return StateToken{}, ErrStateSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return StateToken{}, fmt.Errorf("%w: %v", ErrStateMalformed, err)
	}
	claims := stateClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return StateToken{}, fmt.Errorf("%w: %v", ErrStateMalformed, err)
	}

	kind := FlowKind(strings.TrimSpace(claims.Type))
	if !c.registry.IsValid(kind) {
		return StateToken{}, fmt.Errorf("%w: %q", ErrStateUnknownFlow, claims.Type)
	}
	if claims.IssuedAt == 0 {
		return StateToken{}, ErrStateMissingIssued
	}

	issuedAt := time.Unix(claims.IssuedAt, 0).UTC()
	now := c.now()
	if now.Sub(issuedAt) > c.ttl {
		return StateToken{}, fmt.Errorf("%w: issued %s ago", ErrStateExpired, now.Sub(issuedAt).Truncate(time.Second))
	}
	if issuedAt.Sub(now) > c.maxSkew {
		return StateToken{}, fmt.Errorf("%w: issued %s ahead", ErrStateFuture, issuedAt.Sub(now).Truncate(time.Second))
	}
	if c.registry.Requirement(kind) == TenantRequired && claims.TeamID == nil {
		return StateToken{}, fmt.Errorf("%w: flow %q", ErrStateTenantMissing, kind)
	}

	return StateToken{
		Kind:     kind,
		IssuedAt: issuedAt,
		TenantID: claims.TeamID,
	}, nil
}

func (c *StateTokenCodec) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
