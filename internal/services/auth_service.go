package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"storefront/internal/credentials"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// Password length bounds, in bytes. bcrypt reads no more than MaxPasswordLength.
const (
	MinPasswordLength = 6
	MaxPasswordLength = credentials.MaxPasswordBytes
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// LooksLikeEmail reports whether s should be treated as an email address
// rather than a username.
func LooksLikeEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Claims is the authenticated identity carried by a token.
type Claims struct {
	UserID   uint
	Username string
	Role     string
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FullName string
	Email    string
	Phone    string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	hasher     *credentials.Migrating
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	log        *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher *credentials.Migrating, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		log:        log,
	}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, "", validationError("username and email are required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, "", err
	}

	if err := s.ensureFree(in.Username, in.Email); err != nil {
		return nil, "", err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         models.RoleCustomer,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

func (s *AuthService) ensureFree(username, email string) error {
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return fmt.Errorf("%w: '%s'", ErrUsernameTaken, username)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return fmt.Errorf("%w: '%s'", ErrEmailTaken, email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

// Login authenticates a user and returns a JWT token if successful. A legacy
// digest is replaced by a bcrypt one after a successful check.
func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Unknown usernames and wrong passwords look the same to the caller.
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Warn("stored digest could not be checked", zap.Uint("user_id", user.ID), zap.Error(err))
		return "", nil, ErrInvalidCredentials
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeDigest(user, password)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) upgradeDigest(user *models.User, password string) {
	digest, err := s.hasher.Hash(password)
	if err == nil {
		err = s.userRepo.UpdatePasswordHash(user.ID, digest)
	}
	if err != nil {
		s.log.Warn("password digest upgrade failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = digest
	s.log.Info("password digest upgraded", zap.Uint("user_id", user.ID))
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// JSON numbers decode as float64.
	rawID, ok := mapClaims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	username, _ := mapClaims["username"].(string)
	role, _ := mapClaims["role"].(string)

	return &Claims{UserID: uint(rawID), Username: username, Role: role}, nil
}

// GetProfile loads the account of userID.
func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrAuthenticationRequired
	}
	return s.userRepo.GetByID(userID)
}

// UpdateProfile changes name, email and phone. The email must not belong to
// another account.
func (s *AuthService) UpdateProfile(userID uint, in ProfileInput) (*models.User, error) {
	if userID == 0 {
		return nil, ErrAuthenticationRequired
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, validationError("email is required")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTakenByOther(in.Email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: '%s'", ErrEmailTaken, in.Email)
	}

	user.FullName = in.FullName
	user.Email = in.Email
	user.Phone = in.Phone
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of a signed-in user after checking the old one.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if userID == 0 {
		return ErrAuthenticationRequired
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	return s.setPassword(user.ID, newPassword)
}

// ResetPassword sets a new password for the account named by a username or,
// when the value looks like an email address, by an email.
func (s *AuthService) ResetPassword(usernameOrEmail, newPassword string) error {
	login := strings.TrimSpace(usernameOrEmail)
	if login == "" {
		return validationError("username or email is required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	var (
		user *models.User
		err  error
	)
	if LooksLikeEmail(login) {
		user, err = s.userRepo.GetByEmail(login)
	} else {
		user, err = s.userRepo.GetByUsername(login)
	}
	if err != nil {
		return err
	}

	if err := s.setPassword(user.ID, newPassword); err != nil {
		return err
	}
	s.log.Info("password reset", zap.Uint("user_id", user.ID))
	return nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return validationError("password must have at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return validationError("password must not be longer than %d bytes", MaxPasswordLength)
	}
	return nil
}

func (s *AuthService) setPassword(userID uint, password string) error {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePasswordHash(userID, digest)
}

// EnsureAdmin makes sure an admin account with the given username exists,
// creating it or promoting an existing user.
func (s *AuthService) EnsureAdmin(username, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			return user, nil
		}
		user.Role = models.RoleAdmin
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
		s.log.Info("user promoted to admin", zap.String("username", username))
		return user, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	if email == "" {
		email = username + "@localhost.localdomain"
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	s.log.Info("admin account created", zap.String("username", username))
	return user, nil
}
