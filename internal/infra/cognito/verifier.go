package cognito

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	httpclient "github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/http"
)

const jwksPath = "/.well-known/jwks.json"

const (
	groupsClaim   = "cognito:groups"
	clientIDClaim = "client_id"
	tenantClaim   = "custom:tenantId"
	emailClaim    = "email"
)

// KeySource supplies the issuer's public signing keys.
type KeySource interface {
	Fetch(ctx context.Context) (jwk.Set, error)
}

// RemoteKeySource fetches the key set from the issuer's JWKS endpoint over
// the shared HTTP client.
type RemoteKeySource struct {
	url string
}

func NewRemoteKeySource(issuer string) *RemoteKeySource {
	return &RemoteKeySource{url: strings.TrimSuffix(issuer, "/") + jwksPath}
}

func (s *RemoteKeySource) Fetch(ctx context.Context) (jwk.Set, error) {
	resp, err := httpclient.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks from %s: %w", s.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jwks endpoint %s returned status %d", s.url, resp.StatusCode())
	}

	set, err := jwk.Parse(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwks from %s: %w", s.url, err)
	}
	return set, nil
}

// ClientDescriber confirms that an app client is still registered with the
// identity provider.
type ClientDescriber interface {
	DescribeClient(ctx context.Context, clientID string) error
}

// Verifier validates bearer tokens issued by a Cognito user pool and maps
// them to domain claims.
type Verifier struct {
	issuer           string
	expectedClientID string
	keys             KeySource
	clients          ClientDescriber

	mu     sync.Mutex
	cached jwk.Set
}

type VerifierOption func(*Verifier)

// WithExpectedClientID enforces that the token was issued to this app client.
func WithExpectedClientID(clientID string) VerifierOption {
	return func(v *Verifier) {
		v.expectedClientID = clientID
	}
}

// WithClientLookup confirms on every request that the token's app client is
// still registered, guarding against tokens whose client was revoked after
// issuance but before expiry. The lookup result is never cached.
func WithClientLookup(clients ClientDescriber) VerifierOption {
	return func(v *Verifier) {
		v.clients = clients
	}
}

// WithKeySource substitutes the key set source.
func WithKeySource(keys KeySource) VerifierOption {
	return func(v *Verifier) {
		v.keys = keys
	}
}

func NewVerifier(issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{issuer: strings.TrimSuffix(issuer, "/")}
	v.keys = NewRemoteKeySource(v.issuer)

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// keySet returns the instance-lifetime key set, fetching it on first use. A
// successful fetch is never invalidated: key rotation becomes visible only on
// a fresh instance, and staleness can only cause spurious denials. A failed
// fetch is not latched, so the next invocation retries.
func (v *Verifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil {
		return v.cached, nil
	}

	set, err := v.keys.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	v.cached = set
	return set, nil
}

// Verify checks signature, issuer and expiry against the cached key set,
// enforces the expected client id when one is configured, and runs the
// optional client-registration lookup. Every failure collapses into one
// invalid-token error; callers never see backend detail.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*authorizer.Claims, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := jwt.Parse([]byte(rawToken),
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithIssuer(v.issuer),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims := mapClaims(tok)

	if v.expectedClientID != "" && claims.ClientID != v.expectedClientID {
		return nil, fmt.Errorf("token was not issued to the expected app client")
	}

	if v.clients != nil {
		if err := v.clients.DescribeClient(ctx, claims.ClientID); err != nil {
			return nil, fmt.Errorf("app client lookup failed: %w", err)
		}
	}

	return claims, nil
}

func mapClaims(tok jwt.Token) *authorizer.Claims {
	claims := &authorizer.Claims{
		Subject: tok.Subject(),
		Issuer:  tok.Issuer(),
	}

	if aud := tok.Audience(); len(aud) > 0 {
		claims.ClientID = aud[0]
	}
	// Access tokens carry the app client in client_id rather than aud.
	if s := stringClaim(tok, clientIDClaim); s != "" {
		claims.ClientID = s
	}

	claims.Groups = stringSliceClaim(tok, groupsClaim)
	claims.TenantID = stringClaim(tok, tenantClaim)
	claims.Email = stringClaim(tok, emailClaim)

	return claims
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringSliceClaim(tok jwt.Token, name string) []string {
	v, ok := tok.Get(name)
	if !ok {
		return nil
	}

	switch g := v.(type) {
	case []string:
		return g
	case []interface{}:
		out := make([]string, 0, len(g))
		for _, e := range g {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}
