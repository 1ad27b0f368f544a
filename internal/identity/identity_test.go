package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"medimart/internal/config"
	"medimart/internal/identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier(t *testing.T) {
	ctx := context.Background()
	v := identity.NewHMACVerifier("test-secret", "medimart-test")

	tok, err := v.Issue("uid-123", time.Minute)
	require.NoError(t, err)
	sub, err := v.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "uid-123", sub)

	expired, err := v.Issue("uid-123", -time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	forged, err := identity.NewHMACVerifier("other-secret", "medimart-test").Issue("uid-123", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, forged)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	wrongAud, err := identity.NewHMACVerifier("test-secret", "another-project").Issue("uid-123", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, wrongAud)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = v.Verify(ctx, "a.b.c")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestNewSelectsVerifier(t *testing.T) {
	v, err := identity.New(config.IdentityConfig{HMACSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &identity.HMACVerifier{}, v)

	v, err = identity.New(config.IdentityConfig{ProjectID: "p", CertsURL: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &identity.CertVerifier{}, v)

	_, err = identity.New(config.IdentityConfig{CertsURL: "http://localhost"})
	assert.ErrorIs(t, err, identity.ErrNoAudience)
}

func selfSignedPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestCertVerifier(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	certs := map[string]string{"kid-1": selfSignedPEM(t, key)}

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(certs)
	}))
	defer srv.Close()

	const project = "medimart-test"
	sign := func(kid, aud string) string {
		now := time.Now()
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Subject:   "uid-rs",
			Audience:  jwt.ClaimStrings{aud},
			Issuer:    "https://securetoken.google.com/" + aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	v := identity.NewCertVerifier(project, srv.URL, srv.Client())
	sub, err := v.Verify(ctx, sign("kid-1", project))
	require.NoError(t, err)
	assert.Equal(t, "uid-rs", sub)

	_, err = v.Verify(ctx, sign("kid-1", project))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "certificates are cached")

	_, err = v.Verify(ctx, sign("kid-1", "someone-else"))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = v.Verify(ctx, sign("kid-unknown", project))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "unknown kid within the refetch interval")

	hmacTok, err := identity.NewHMACVerifier("s", project).Issue("uid-rs", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, hmacTok)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestCertVerifierThrottlesUnknownKids(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	certs := map[string]string{"kid-1": selfSignedPEM(t, key)}

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(certs)
	}))
	defer srv.Close()

	const project = "medimart-test"
	v := identity.NewCertVerifier(project, srv.URL, srv.Client())
	for i := 0; i < 5; i++ {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Subject:   "uid-rs",
			Audience:  jwt.ClaimStrings{project},
			Issuer:    "https://securetoken.google.com/" + project,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		})
		tok.Header["kid"] = fmt.Sprintf("kid-missing-%d", i)
		raw, err := tok.SignedString(key)
		require.NoError(t, err)
		_, err = v.Verify(ctx, raw)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCertVerifierRequiresAudience(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	v := identity.NewCertVerifier("", srv.URL, srv.Client())
	_, err := v.Verify(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
	assert.Zero(t, atomic.LoadInt32(&hits))
}
