package apifake

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenExpiry = 24 * time.Hour

func (s *Server) issueToken(u *account) (string, error) {
	now := s.nowTime()
	claims := jwtlib.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  roleClaim(u),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenExpiry).Unix(),
		"jti":   uuid.New().String(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// accountFromToken validates the signature and expiry and returns the
// account the token was issued to.
func (s *Server) accountFromToken(raw string) (*account, error) {
	parsed, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.nowTime),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	u, ok := s.accounts[sub]
	if !ok {
		return nil, fmt.Errorf("unknown subject")
	}
	return u, nil
}

func roleClaim(u *account) string {
	if u.Admin {
		return "admin"
	}
	return "user"
}
