// Package identity verifies bearer ID tokens issued by the external identity
// provider and yields the verified subject id.
package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"medimart/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrNoAudience is returned by New when neither a shared secret nor a
// project id is configured; without one any project's token would verify.
var ErrNoAudience = errors.New("identity: project id or hmac secret required")

// Verifier turns a raw token into the provider's subject id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// New builds the verifier selected by configuration: a shared-secret
// verifier when a secret is set, otherwise the provider certificate verifier,
// which requires a project id.
func New(cfg config.IdentityConfig) (Verifier, error) {
	if cfg.HMACSecret != "" {
		return NewHMACVerifier(cfg.HMACSecret, cfg.ProjectID), nil
	}
	if cfg.ProjectID == "" {
		return nil, ErrNoAudience
	}
	return NewCertVerifier(cfg.ProjectID, cfg.CertsURL, nil), nil
}

func issuerFor(projectID string) string {
	return "https://securetoken.google.com/" + projectID
}

func parserOptions(method, projectID string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if projectID != "" {
		opts = append(opts, jwt.WithAudience(projectID), jwt.WithIssuer(issuerFor(projectID)))
	}
	return opts
}

func subjectOf(tok *jwt.Token, err error) (string, error) {
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

// HMACVerifier checks HS256 tokens signed with a shared secret. It backs
// local development and tests.
type HMACVerifier struct {
	secret    []byte
	projectID string
}

func NewHMACVerifier(secret, projectID string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), projectID: projectID}
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, parserOptions(jwt.SigningMethodHS256.Alg(), v.projectID)...)
	return subjectOf(tok, err)
}

// Issue signs a token for subject. Only meaningful with a shared secret.
func (v *HMACVerifier) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.projectID != "" {
		claims.Audience = jwt.ClaimStrings{v.projectID}
		claims.Issuer = issuerFor(v.projectID)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// CertVerifier checks RS256 tokens against the provider's published x509
// certificates, keyed by "kid". Certificates are cached for certTTL and
// refetched at most once per minRefetch, so unknown key ids cannot force
// repeated outbound calls.
type CertVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetched   time.Time
	attempted time.Time
	inflight  chan struct{}
}

const (
	certTTL    = time.Hour
	minRefetch = time.Minute
)

func NewCertVerifier(projectID, certsURL string, client *http.Client) *CertVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CertVerifier{projectID: projectID, certsURL: certsURL, client: client}
}

func (v *CertVerifier) Verify(ctx context.Context, raw string) (string, error) {
	if v.projectID == "" {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, ErrNoAudience)
	}
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, parserOptions(jwt.SigningMethodRS256.Alg(), v.projectID)...)
	return subjectOf(tok, err)
}

// key returns the public key for kid. Only one fetch runs at a time and it
// runs without holding mu; concurrent callers wait for it.
func (v *CertVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	k, ok := v.keys[kid]
	if ok && time.Since(v.fetched) < certTTL {
		v.mu.Unlock()
		return k, nil
	}
	if wait := v.inflight; wait != nil {
		v.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return v.cached(kid)
	}
	if !v.attempted.IsZero() && time.Since(v.attempted) < minRefetch {
		v.mu.Unlock()
		if ok {
			return k, nil
		}
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	done := make(chan struct{})
	v.inflight, v.attempted = done, time.Now()
	v.mu.Unlock()

	keys, err := v.fetch(ctx)

	v.mu.Lock()
	if err == nil {
		v.keys, v.fetched = keys, time.Now()
	}
	v.inflight = nil
	close(done)
	v.mu.Unlock()

	if err != nil && !ok {
		return nil, err
	}
	return v.cached(kid)
}

func (v *CertVerifier) cached(kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown key id %q", kid)
}

func (v *CertVerifier) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch certs: status %d", resp.StatusCode)
	}

	var pems map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pems); err != nil {
		return nil, fmt.Errorf("decode certs: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, p := range pems {
		block, _ := pem.Decode([]byte(p))
		if block == nil {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			keys[kid] = pub
		}
	}
	return keys, nil
}
