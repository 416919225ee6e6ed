package services

import (
	"errors"
	"fmt"
	"time"

	"deckforge/internal/models"
	"deckforge/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Errors surfaced by the auth service. Handlers map them to HTTP statuses.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
}

// RegisterUser registers a new user, hashes their password, and saves them to
// the database. The very first registered user is promoted to admin.
func (s *AuthService) RegisterUser(user *models.User, password string) error {
	// Check if username or email already exists
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username %q: %w", user.Username, ErrUsernameTaken)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email %q: %w", user.Email, ErrEmailTaken)
	}

	count, err := s.userRepo.Count()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hashedPassword)
	user.IsActive = true
	user.Role = models.RoleUser
	if count == 0 {
		user.Role = models.RoleAdmin
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a signed JWT plus their admin
// flag. Unknown usernames, wrong passwords and inactive accounts all come
// back as credential failures.
func (s *AuthService) LoginUser(username, password string) (string, bool, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return "", false, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", false, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", false, ErrInactiveUser
	}

	isAdmin := user.IsAdmin()

	// The role claims are informational for clients; authorization decisions
	// always re-read the stored role (see CurrentUser).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.Username,
		"user_id":  user.ID,
		"role":     user.Role,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, isAdmin, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if
// valid. Tokens without a subject are rejected.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// CurrentUser resolves the user a token identifies. The token is treated as
// an identity reference only: role and active flag are read fresh from the
// database on every call, so a stale token cannot outlive a role downgrade
// or a deactivation.
func (s *AuthService) CurrentUser(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	username, _ := claims["sub"].(string)
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Only a missing user invalidates the token. A storage failure is a
		// server-side problem and must not read as an auth failure.
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}
