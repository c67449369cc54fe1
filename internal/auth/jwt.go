package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the external provider vouches for.
type Identity struct {
	UID   string
	Email string
}

// Verifier turns a bearer credential into a verified identity. Any error is
// a hard rejection; callers never retry.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type JWTVerifier struct {
	publicKey *rsa.PublicKey
	hsSecret  []byte
}

// NewRS256 loads an RSA public key from the filesystem.
func NewRS256(pubPath string) (*JWTVerifier, error) {
	b, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not RSA public key")
	}
	return &JWTVerifier{publicKey: rsaPub}, nil
}

func NewHS256(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("empty HS256 secret")
	}
	return &JWTVerifier{hsSecret: []byte(secret)}, nil
}

func (j *JWTVerifier) Verify(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, errors.New("empty token")
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if j.publicKey != nil {
			if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return j.publicKey, nil
		}
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.hsSecret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		if u, ok := claims["user_id"].(string); ok {
			sub = u
		}
	}
	if sub == "" {
		return Identity{}, errors.New("sub claim missing")
	}
	email, _ := claims["email"].(string)
	return Identity{UID: sub, Email: strings.ToLower(email)}, nil
}

// DomainAllowed reports whether the email belongs to the company domain.
func DomainAllowed(email, domain string) bool {
	return email != "" && strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain))
}
