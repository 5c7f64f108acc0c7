package services

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleStaff = "staff"

var ErrInvalidCredentials = errors.New("invalid username or password")

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService checks the single staff account and issues signed tokens.
type AuthService struct {
	Username     string
	PasswordHash []byte
	Secret       []byte
	TTL          time.Duration
	Now          func() time.Time
}

// NewAuthService takes a bcrypt hash; when hash is empty the plain password is hashed once.
func NewAuthService(username, passwordHash, plainPassword, secret string, ttl time.Duration) (*AuthService, error) {
	hash := []byte(strings.TrimSpace(passwordHash))
	if len(hash) == 0 {
		if plainPassword == "" {
			return nil, errors.New("staff password or password hash is required")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		Username:     username,
		PasswordHash: hash,
		Secret:       []byte(secret),
		TTL:          ttl,
		Now:          time.Now,
	}, nil
}

// Login returns a signed token for the staff role.
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	if !strings.EqualFold(strings.TrimSpace(username), s.Username) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	now := s.Now()
	exp := now.Add(s.TTL)
	claims := Claims{
		Username: s.Username,
		Role:     RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseToken validates signature and expiry.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IsAuthorized reports whether token carries role.
func (s *AuthService) IsAuthorized(token, role string) bool {
	claims, err := s.ParseToken(token)
	if err != nil {
		return false
	}
	return claims.Role == role
}
