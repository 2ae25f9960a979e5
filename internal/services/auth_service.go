package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/security"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrAuthPasswordMismatch   = errors.New("password mismatch")
	ErrAuthEmailExists        = errors.New("email already registered")
	ErrWeakPassword           = errors.New("weak password")
	ErrAuthUserNotFound       = errors.New("user not found")
	ErrAuthRegisterFailed     = errors.New("register failed")
)

const (
	maxPasswordLength       = 128
	temporaryPasswordLength = 12
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
}

type AuthService struct {
	users AuthUserRepository
	now   func() time.Time
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users, now: time.Now}
}

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func ValidatePasswordStrength(password string) error {
	length := len([]rune(password))
	if length < 8 || length > maxPasswordLength {
		return ErrWeakPassword
	}

	hasUpper, hasLower, hasDigit := false, false, false
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if hasUpper && hasLower && hasDigit {
		return nil
	}
	return ErrWeakPassword
}

func (service *AuthService) Register(ctx context.Context, rawEmail string, password string, confirmPassword string) (models.User, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" || strings.TrimSpace(password) == "" {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if password != confirmPassword {
		return models.User{}, ErrAuthPasswordMismatch
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegisterFailed, err)
	}
	if exists {
		return models.User{}, ErrAuthEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegisterFailed, err)
	}

	user := models.User{
		Email:             email,
		PasswordHash:      string(hash),
		Role:              models.RoleOwner,
		AvgPeriodDuration: models.DefaultPeriodLength,
		CreatedAt:         service.now().UTC(),
	}
	if err := service.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrAuthRegisterFailed, err)
	}
	return user, nil
}

// Authenticate returns ErrAuthCredentialsInvalid for both unknown emails and wrong passwords.
func (service *AuthService) Authenticate(ctx context.Context, rawEmail string, password string) (models.User, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" || password == "" {
		return models.User{}, ErrAuthCredentialsInvalid
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	return service.users.FindByID(ctx, userID)
}

// ResetPassword replaces the password of the account with a random temporary one and
// returns it in clear text for out-of-band delivery.
func (service *AuthService) ResetPassword(ctx context.Context, rawEmail string) (string, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" {
		return "", ErrAuthCredentialsInvalid
	}
	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAuthUserNotFound, email)
	}

	temporary, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(temporary), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash temporary password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return temporary, nil
}

// SetPassword replaces the password of the account after the usual strength checks.
func (service *AuthService) SetPassword(ctx context.Context, rawEmail string, password string, confirmPassword string) error {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" {
		return ErrAuthCredentialsInvalid
	}
	if password != confirmPassword {
		return ErrAuthPasswordMismatch
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}
	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAuthUserNotFound, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
