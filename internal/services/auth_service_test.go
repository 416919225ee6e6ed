package services_test

import (
	"fmt"
	"testing"
	"time"

	"deckforge/internal/models"
	"deckforge/internal/repositories"
	"deckforge/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(skip, limit int) ([]models.User, error) {
	args := m.Called(skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockUserRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthService_RegisterUser_FirstUserIsAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret")

	user := &models.User{Username: "alice", Email: "alice@example.com"}

	mockRepo.On("GetByUsername", "alice").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "alice@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Count").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user, "password123")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)
	// The stored password must be a hash of the submitted one.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_SubsequentUsersAreRegular(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret")

	user := &models.User{Username: "bob", Email: "bob@example.com"}

	mockRepo.On("GetByUsername", "bob").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "bob@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Count").Return(int64(1), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user, "password123")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_Duplicates(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret")

	user := &models.User{Username: "alice", Email: "alice@example.com"}

	// Username already taken
	mockRepo.On("GetByUsername", "alice").Return(&models.User{ID: 1}, nil).Once()
	err := authService.RegisterUser(user, "password123")
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	// Email already registered
	mockRepo.On("GetByUsername", "alice").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "alice@example.com").Return(&models.User{ID: 2}, nil).Once()
	err = authService.RegisterUser(user, "password123")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       42,
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	// Successful login of an admin carries is_admin in both return and claims
	mockRepo.On("GetByUsername", "alice").Return(user, nil).Once()
	token, isAdmin, err := authService.LoginUser("alice", "password123")
	assert.NoError(t, err)
	assert.True(t, isAdmin)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
	assert.Equal(t, true, claims["is_admin"])

	// Wrong password
	mockRepo.On("GetByUsername", "alice").Return(user, nil).Once()
	_, _, err = authService.LoginUser("alice", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown username maps to the same generic credential failure
	mockRepo.On("GetByUsername", "nobody").Return(nil, fmt.Errorf("not found")).Once()
	_, _, err = authService.LoginUser("nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Inactive accounts cannot log in
	inactive := &models.User{
		ID:       7,
		Username: "mallory",
		Password: string(hashedPassword),
		Role:     models.RoleUser,
		IsActive: false,
	}
	mockRepo.On("GetByUsername", "mallory").Return(inactive, nil).Once()
	_, _, err = authService.LoginUser("mallory", "password123")
	assert.ErrorIs(t, err, services.ErrInactiveUser)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	// Valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "alice",
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])

	// Garbage token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Token signed with the right key but without a subject
	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSubString, _ := noSub.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(noSubString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Expired token
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, _ := expired.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_CurrentUser_StorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte(testJWTSecret))

	// A storage failure is not an auth failure.
	mockRepo.On("GetByUsername", "alice").Return(nil, fmt.Errorf("connection refused")).Once()
	_, err := authService.CurrentUser(tokenString)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidToken)

	// An unknown subject still reads as an invalid token.
	mockRepo.On("GetByUsername", "alice").Return(nil,
		fmt.Errorf("user with username alice: %w", repositories.ErrNotFound)).Once()
	_, err = authService.CurrentUser(tokenString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_CurrentUser_ReadsFreshState(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "alice",
		"role":     models.RoleAdmin, // stale claim: alice was demoted since
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte(testJWTSecret))

	demoted := &models.User{ID: 42, Username: "alice", Role: models.RoleUser, IsActive: true}
	mockRepo.On("GetByUsername", "alice").Return(demoted, nil).Once()

	user, err := authService.CurrentUser(tokenString)
	assert.NoError(t, err)
	// The database role wins over the token claim.
	assert.False(t, user.IsAdmin())

	// Deactivated accounts are rejected even with a valid token.
	inactive := &models.User{ID: 42, Username: "alice", Role: models.RoleUser, IsActive: false}
	mockRepo.On("GetByUsername", "alice").Return(inactive, nil).Once()
	_, err = authService.CurrentUser(tokenString)
	assert.ErrorIs(t, err, services.ErrInactiveUser)
	mockRepo.AssertExpectations(t)
}
