package services_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/credentials"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePasswordHash(id uint, hash string) error {
	args := m.Called(id, hash)
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

func (m *MockUserRepository) GetByIDs(ids []uint) (map[uint]models.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.User), args.Error(1)
}

func (m *MockUserRepository) EmailTakenByOther(email string, userID uint) (bool, error) {
	args := m.Called(email, userID)
	return args.Bool(0), args.Error(1)
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func newAuthService(repo repositories.UserRepository) *services.AuthService {
	return services.NewAuthService(repo, credentials.NewMigrating(bcrypt.MinCost), testJWTSecret, time.Hour, zap.NewNop())
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	in := services.RegisterInput{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
		FullName: "Test User",
	}

	// Test successful registration
	mockRepo.On("GetByUsername", in.Username).Return(nil, notFound("user")).Once()
	mockRepo.On("GetByEmail", in.Email).Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, token, err := authService.Register(in)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.True(t, credentials.IsBcrypt(user.PasswordHash))
	assert.NotEqual(t, in.Password, user.PasswordHash)
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", in.Username).Return(&models.User{ID: 1}, nil).Once()
	_, _, err = authService.Register(in)
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	assert.Contains(t, err.Error(), "'testuser'")
	assert.Equal(t, services.KindConflict, services.KindOf(err))
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", in.Username).Return(nil, notFound("user")).Once()
	mockRepo.On("GetByEmail", in.Email).Return(&models.User{ID: 1}, nil).Once()
	_, _, err = authService.Register(in)
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	authService := newAuthService(new(MockUserRepository))

	_, _, err := authService.Register(services.RegisterInput{Username: "a", Email: "a@b.c", Password: "123"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	_, _, err = authService.Register(services.RegisterInput{Username: " ", Email: "a@b.c", Password: "123456"})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestAuthService_RejectsOverlongPasswords(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	long := strings.Repeat("x", services.MaxPasswordLength+1)

	_, _, err := authService.Register(services.RegisterInput{Username: "alice", Email: "a@b.c", Password: long})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	err = authService.ChangePassword(5, "password123", long)
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	err = authService.ResetPassword("alice", long)
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	// Rejected before any repository call.
	mockRepo.AssertNotCalled(t, "GetByUsername", mock.Anything)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)

	_, err = credentials.NewMigrating(bcrypt.MinCost).Hash(long)
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	// Exactly MaxPasswordLength bytes is accepted.
	mockRepo.On("GetByUsername", "alice").Return(&models.User{ID: 7, Username: "alice"}, nil).Once()
	mockRepo.On("UpdatePasswordHash", uint(7), mock.MatchedBy(credentials.IsBcrypt)).Return(nil).Once()
	require.NoError(t, authService.ResetPassword("alice", long[1:]))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:           42,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         models.RoleManager,
	}

	// Test successful login
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	token, loggedIn, err := authService.Login("testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])
	assert.Equal(t, models.RoleManager, claims["role"])
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	_, _, err = authService.Login("testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, notFound("user")).Once()
	_, _, err = authService.Login("nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_UpgradesLegacyDigest(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	legacy, err := credentials.Legacy{}.Hash("password123")
	require.NoError(t, err)
	user := &models.User{ID: 7, Username: "old", PasswordHash: legacy, Role: models.RoleCustomer}

	mockRepo.On("GetByUsername", "old").Return(user, nil).Once()
	mockRepo.On("UpdatePasswordHash", uint(7), mock.MatchedBy(credentials.IsBcrypt)).Return(nil).Once()

	_, loggedIn, err := authService.Login("old", "password123")
	require.NoError(t, err)
	assert.True(t, credentials.IsBcrypt(loggedIn.PasswordHash))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_UpgradeFailureStillSignsIn(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	legacy, _ := credentials.Legacy{}.Hash("password123")
	user := &models.User{ID: 7, Username: "old", PasswordHash: legacy}

	mockRepo.On("GetByUsername", "old").Return(user, nil).Once()
	mockRepo.On("UpdatePasswordHash", uint(7), mock.Anything).Return(fmt.Errorf("disk full")).Once()

	token, _, err := authService.Login("old", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, legacy, user.PasswordHash)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByUsername", "testuser").Return(nil, notFound("user")).Once()
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	user, token, err := authService.Register(services.RegisterInput{
		Username: "testuser", Email: "test@example.com", Password: "password123",
	})
	require.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	_, err = authService.ValidateToken("garbage")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	other := services.NewAuthService(mockRepo, credentials.NewMigrating(bcrypt.MinCost), "another-secret", time.Hour, zap.NewNop())
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	expired := services.NewAuthService(mockRepo, credentials.NewMigrating(bcrypt.MinCost), testJWTSecret, -time.Minute, zap.NewNop())
	mockRepo.On("GetByUsername", "late").Return(nil, notFound("user")).Once()
	mockRepo.On("GetByEmail", "late@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	_, staleToken, err := expired.Register(services.RegisterInput{
		Username: "late", Email: "late@example.com", Password: "password123",
	})
	require.NoError(t, err)
	_, err = authService.ValidateToken(staleToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	user := &models.User{ID: 3, Username: "jane", Email: "jane@old.com"}
	mockRepo.On("GetByID", uint(3)).Return(user, nil)
	mockRepo.On("EmailTakenByOther", "taken@example.com", uint(3)).Return(true, nil).Once()
	mockRepo.On("EmailTakenByOther", "jane@new.com", uint(3)).Return(false, nil).Once()
	mockRepo.On("Update", user).Return(nil).Once()

	_, err := authService.UpdateProfile(3, services.ProfileInput{Email: "taken@example.com"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	updated, err := authService.UpdateProfile(3, services.ProfileInput{FullName: "Jane Roe", Email: "jane@new.com", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "jane@new.com", updated.Email)
	assert.Equal(t, "Jane", updated.FirstName())
	assert.Equal(t, "Roe", updated.LastName())

	_, err = authService.UpdateProfile(0, services.ProfileInput{Email: "x@y.z"})
	assert.ErrorIs(t, err, services.ErrAuthenticationRequired)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: 5, Username: "u", PasswordHash: string(hashed)}
	mockRepo.On("GetByID", uint(5)).Return(user, nil)
	mockRepo.On("UpdatePasswordHash", uint(5), mock.MatchedBy(credentials.IsBcrypt)).Return(nil).Once()

	err := authService.ChangePassword(5, "wrong", "newsecret")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	err = authService.ChangePassword(5, "password123", "short")
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	require.NoError(t, authService.ChangePassword(5, "password123", "newsecret"))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ResetPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	user := &models.User{ID: 9, Username: "bob", Email: "bob@example.com"}
	mockRepo.On("GetByEmail", "bob@example.com").Return(user, nil).Once()
	mockRepo.On("GetByUsername", "bob").Return(user, nil).Once()
	mockRepo.On("GetByUsername", "ghost").Return(nil, notFound("user")).Once()
	mockRepo.On("UpdatePasswordHash", uint(9), mock.Anything).Return(nil).Twice()

	require.NoError(t, authService.ResetPassword("bob@example.com", "newsecret"))
	require.NoError(t, authService.ResetPassword("bob", "newsecret"))

	err := authService.ResetPassword("ghost", "newsecret")
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	err = authService.ResetPassword("bob", "123")
	assert.Equal(t, services.KindValidation, services.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByUsername", "root").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin && u.Email == "root@localhost.localdomain"
	})).Return(nil).Once()

	admin, err := authService.EnsureAdmin("root", "", "supersecret")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff())

	existing := &models.User{ID: 2, Username: "boss", Role: models.RoleCustomer}
	mockRepo.On("GetByUsername", "boss").Return(existing, nil).Once()
	mockRepo.On("Update", existing).Return(nil).Once()

	promoted, err := authService.EnsureAdmin("boss", "", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	mockRepo.AssertExpectations(t)
}

func TestLooksLikeEmail(t *testing.T) {
	assert.True(t, services.LooksLikeEmail("a@b.co"))
	assert.False(t, services.LooksLikeEmail("alice"))
	assert.False(t, services.LooksLikeEmail("a@b"))
	assert.False(t, services.LooksLikeEmail("a b@c.d"))
}
