package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/your-org/wanted/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// Config holds the credentials and signing settings
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Username string
	Password string
	Role     string
}

// Claims is the JWT payload issued at login
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies access tokens
type Service struct {
	secret   []byte
	ttl      time.Duration
	username string
	password string
	role     string
	now      func() time.Time
}

// NewService creates an auth service
func NewService(cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.Role == "" {
		cfg.Role = "admin"
	}
	return &Service{
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TokenTTL,
		username: cfg.Username,
		password: cfg.Password,
		role:     cfg.Role,
		now:      time.Now,
	}
}

// Login checks the credentials and returns a signed token for the user
func (s *Service) Login(username, password string) (string, domain.User, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK || s.username == "" {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	user := domain.User{Username: username, Role: s.role}
	token, err := s.Issue(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Issue signs a token for user valid for the configured TTL
func (s *Service) Issue(user domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns the user it was issued to
func (s *Service) Verify(token string) (domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.User{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidToken)
	}
	return domain.User{Username: claims.Username, Role: claims.Role}, nil
}
