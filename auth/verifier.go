// Package auth integrates with Auth0: verification of RS256 bearer tokens
// against the tenant JWKS, and the OAuth authorization-code login flow.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure value for token verification. Every
// failure mode (malformed header, unknown kid, bad signature, expired,
// audience or issuer mismatch) collapses into it; callers get no granular
// distinction.
var ErrInvalidToken = errors.New("invalid bearer token")

// keyCacheTTL is how long a downloaded key set is trusted before the
// well-known endpoint is consulted again.
const keyCacheTTL = 6 * time.Hour

// minKeyRefreshInterval bounds how often an unknown kid may trigger an early
// re-download, so a stream of bad tokens cannot hammer the tenant.
const minKeyRefreshInterval = time.Minute

// Claims are the verified token claims.
type Claims struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against an Auth0 tenant's signing keys.
type Verifier struct {
	jwksURL  string
	issuer   string
	audience string
	client   *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier creates a verifier for the given Auth0 tenant. The expected
// audience of API tokens is the application client id.
func NewVerifier(domain, clientID string) *Verifier {
	return &Verifier{
		jwksURL:  fmt.Sprintf("https://%s/.well-known/jwks.json", domain),
		issuer:   fmt.Sprintf("https://%s/", domain),
		audience: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyToken validates the token signature, audience, issuer and expiry and
// returns the claims. Only asymmetric RS256 signatures are accepted.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("token header has no kid")
		}
		return v.lookupKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// lookupKey resolves a signing key by kid, refreshing the cached key set
// when it is stale or the kid is unknown. The unknown-kid refresh covers key
// rotation: a token signed with a freshly published key is accepted without
// waiting out the cache TTL.
func (v *Verifier) lookupKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) <= keyCacheTTL {
		return key, nil
	}
	if v.keys == nil || time.Since(v.fetchedAt) > minKeyRefreshInterval {
		if err := v.refreshKeysLocked(ctx); err != nil {
			return nil, err
		}
	}
	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key with kid %q", kid)
	}
	return key, nil
}

type jwks struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *Verifier) refreshKeysLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	res, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks download returned status %d", res.StatusCode)
	}

	var keySet jwks
	if err := json.NewDecoder(res.Body).Decode(&keySet); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(keySet.Keys))
	for _, k := range keySet.Keys {
		if k.Kty != "RSA" {
			continue
		}
		key, err := rsaKeyFromModulusExponent(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	return nil
}

func rsaKeyFromModulusExponent(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
