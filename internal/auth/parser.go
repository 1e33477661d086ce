// Package auth reads the principal out of access tokens issued by the
// identity service.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/podryad/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims of an access token. The subject is the user id.
type Claims struct {
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	role, ok := model.ParseRole(strings.ToLower(strings.TrimSpace(claims.Role)))
	if !ok {
		return model.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	principal := model.Principal{UserID: userID, Role: role}
	if claims.DepartmentID != "" {
		departmentID, err := uuid.Parse(claims.DepartmentID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("%w: department_id is not a uuid", ErrInvalidToken)
		}
		principal.DepartmentID = &departmentID
	}
	return principal, nil
}

// Sign issues a token for principal. Production tokens come from the
// identity service; this is for tests and local tooling.
func (p *Parser) Sign(principal model.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if principal.DepartmentID != nil {
		claims.DepartmentID = principal.DepartmentID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
