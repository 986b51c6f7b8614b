package backendfake

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// signer issues and verifies login keys with symmetric HMAC-SHA256.
type signer struct {
	secret []byte
}

func newSigner(secret string) *signer {
	return &signer{secret: []byte(secret)}
}

func (s *signer) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign login key")
	}
	return signed, nil
}

// Verify parses a login key and checks its signature and expiry.
func (s *signer) Verify(loginKey string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	opts = append(opts, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := jwt.ParseWithClaims(loginKey, claims, s.verificationKey, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid login key")
	}
	return claims, nil
}

func (s *signer) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
