package service

import (
	"alcyxob/sports-academy/internal/config"
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid credentials")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

type AuthService interface {
	// Login authenticates the configured back-office admin.
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// ParentLogin authenticates a parent against the portal credentials stored on a student.
	ParentLogin(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	GetJWTSecret() string
}

type authService struct {
	admin         config.AdminConfig
	students      *state.Collection[domain.Student]
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(admin config.AdminConfig, store *state.Store, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		admin:         admin,
		students:      store.Students(),
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, errors.New("email and password cannot be empty")
	}
	if s.admin.Email == "" || s.admin.PasswordHash == "" || !strings.EqualFold(email, s.admin.Email) {
		return "", nil, ErrAuthenticationFailed
	}
	if bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrAuthenticationFailed
	}

	user := &domain.User{ID: s.admin.Email, Name: "Administrator", Role: domain.RoleAdmin}
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

func (s *authService) ParentLogin(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, errors.New("username and password cannot be empty")
	}

	var match *domain.Student
	for _, st := range s.students.All() {
		if st.ParentUsername != "" && strings.EqualFold(st.ParentUsername, username) {
			match = &st
			break
		}
	}
	// Unknown users and students without a portal password look the same as a bad password.
	if match == nil || match.ParentPasswordHash == "" {
		return "", nil, ErrAuthenticationFailed
	}
	if bcrypt.CompareHashAndPassword([]byte(match.ParentPasswordHash), []byte(password)) != nil {
		return "", nil, ErrAuthenticationFailed
	}

	user := &domain.User{
		ID:        match.ParentUsername,
		Name:      match.ParentName,
		Role:      domain.RoleParent,
		StudentID: match.ID,
	}
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID    string      `json:"uid"`
	Role      domain.Role `json:"role"`
	StudentID string      `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:    user.ID,
		Role:      user.Role,
		StudentID: user.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sports-academy",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

// HashPassword bcrypts a plain password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}
