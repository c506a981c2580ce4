package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshLifespanFactor = 24

type JWTService struct {
	secretKey     []byte
	tokenLifespan time.Duration
	issuer        string
}

type CustomClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, tokenLifespan time.Duration) *JWTService {
	return &JWTService{
		secretKey:     []byte(secretKey),
		tokenLifespan: tokenLifespan,
		issuer:        "internmatch-devserver",
	}
}

// GenerateTokenPair issues an access token carrying the roles claim and a
// longer-lived refresh token without it.
func (s *JWTService) GenerateTokenPair(subject string, roles []string) (access string, refresh string, err error) {
	access, err = s.sign(subject, roles, s.tokenLifespan)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.sign(subject, nil, s.tokenLifespan*refreshLifespanFactor)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *JWTService) sign(subject string, roles []string, lifespan time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		roles,
		jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifespan)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}

	return signedString, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature algorithm: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("error when parsing token claims")
}
