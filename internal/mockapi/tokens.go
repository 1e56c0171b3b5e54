package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL     = 15 * time.Minute
	defaultSigningMethod = "HS256"
)

type accessClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

type issuedPair struct {
	Access  string
	Refresh string
}

// tokenIssuer signs access tokens and remembers revoked ones until they expire
type tokenIssuer struct {
	key       []byte
	alg       jwt.SigningMethod
	accessTTL time.Duration
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expires at
	refresh map[string]int64     // refresh token -> user id
}

func newTokenIssuer(secret string, accessTTL time.Duration) (*tokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if accessTTL == 0 {
		accessTTL = defaultAccessTTL
	}

	return &tokenIssuer{
		key:       []byte(secret),
		alg:       jwt.GetSigningMethod(defaultSigningMethod),
		accessTTL: accessTTL,
		now:       time.Now,
		revoked:   make(map[string]time.Time),
		refresh:   make(map[string]int64),
	}, nil
}

func (ti *tokenIssuer) Issue(userID int64) (issuedPair, error) {
	var pair issuedPair
	now := ti.now().Truncate(time.Second)

	token := jwt.NewWithClaims(ti.alg, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
		UserID: userID,
	})
	access, err := token.SignedString(ti.key)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return pair, fmt.Errorf("error while generate refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	ti.mu.Lock()
	ti.refresh[refresh] = userID
	ti.mu.Unlock()

	return issuedPair{Access: access, Refresh: refresh}, nil
}

// Parse validates signature, expiry and revocation
func (ti *tokenIssuer) Parse(access string) (accessClaims, error) {
	claims := accessClaims{}
	token, err := jwt.ParseWithClaims(
		access,
		&claims,
		func(t *jwt.Token) (any, error) { return ti.key, nil },
		jwt.WithValidMethods([]string{ti.alg.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !token.Valid {
		return claims, fmt.Errorf("error parsing token. Err: %w", err)
	}

	ti.mu.Lock()
	defer ti.mu.Unlock()
	if _, ok := ti.revoked[claims.ID]; ok {
		return claims, errors.New("token revoked")
	}

	return claims, nil
}

// Revoke the access token and the refresh token issued with it (if given)
func (ti *tokenIssuer) Revoke(claims accessClaims, refresh string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	now := ti.now()
	for jti, exp := range ti.revoked {
		if exp.Before(now) {
			delete(ti.revoked, jti)
		}
	}

	if claims.ExpiresAt != nil {
		ti.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	delete(ti.refresh, refresh)
}
