package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type memoryAuthUsers struct {
	byEmail map[string]models.User
	nextID  uint
}

func newMemoryAuthUsers() *memoryAuthUsers {
	return &memoryAuthUsers{byEmail: make(map[string]models.User)}
}

func (repo *memoryAuthUsers) ExistsByNormalizedEmail(_ context.Context, email string) (bool, error) {
	_, ok := repo.byEmail[email]
	return ok, nil
}

func (repo *memoryAuthUsers) FindByNormalizedEmail(_ context.Context, email string) (models.User, error) {
	user, ok := repo.byEmail[email]
	if !ok {
		return models.User{}, errors.New("record not found")
	}
	return user, nil
}

func (repo *memoryAuthUsers) FindByID(_ context.Context, userID uint) (models.User, error) {
	for _, user := range repo.byEmail {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, errors.New("record not found")
}

func (repo *memoryAuthUsers) Create(_ context.Context, user *models.User) error {
	repo.nextID++
	user.ID = repo.nextID
	repo.byEmail[user.Email] = *user
	return nil
}

func (repo *memoryAuthUsers) UpdatePassword(_ context.Context, userID uint, passwordHash string) error {
	for email, user := range repo.byEmail {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			repo.byEmail[email] = user
			return nil
		}
	}
	return errors.New("record not found")
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password string
		valid    bool
	}{
		{password: "StrongPass1", valid: true},
		{password: "Ab1", valid: false},
		{password: "alllowercase1", valid: false},
		{password: "ALLUPPERCASE1", valid: false},
		{password: "NoDigitsHere", valid: false},
		{password: "Пароль123", valid: true},
	}
	for _, testCase := range cases {
		err := ValidatePasswordStrength(testCase.password)
		if testCase.valid && err != nil {
			t.Fatalf("expected %q to be accepted, got %v", testCase.password, err)
		}
		if !testCase.valid && !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected %q to be rejected, got %v", testCase.password, err)
		}
	}
}

func TestAuthServiceRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	users := newMemoryAuthUsers()
	service := NewAuthService(users)
	service.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }

	user, err := service.Register(context.Background(), "  Owner@Example.com ", "StrongPass1", "StrongPass1")
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if user.Email != "owner@example.com" || user.Role != models.RoleOwner || user.AvgPeriodDuration != models.DefaultPeriodLength {
		t.Fatalf("unexpected registered user %+v", user)
	}

	if _, err := service.Register(context.Background(), "owner@example.com", "StrongPass1", "StrongPass1"); !errors.Is(err, ErrAuthEmailExists) {
		t.Fatalf("expected ErrAuthEmailExists, got %v", err)
	}
	if _, err := service.Register(context.Background(), "other@example.com", "StrongPass1", "StrongPass2"); !errors.Is(err, ErrAuthPasswordMismatch) {
		t.Fatalf("expected ErrAuthPasswordMismatch, got %v", err)
	}
	if _, err := service.Register(context.Background(), "not-an-email", "StrongPass1", "StrongPass1"); !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid, got %v", err)
	}

	if _, err := service.Authenticate(context.Background(), "OWNER@example.com", "StrongPass1"); err != nil {
		t.Fatalf("Authenticate() unexpected error: %v", err)
	}
	for _, attempt := range []struct{ email, password string }{
		{"owner@example.com", "WrongPass1"},
		{"ghost@example.com", "StrongPass1"},
		{"owner@example.com", ""},
	} {
		if _, err := service.Authenticate(context.Background(), attempt.email, attempt.password); !errors.Is(err, ErrAuthCredentialsInvalid) {
			t.Fatalf("expected ErrAuthCredentialsInvalid for %q, got %v", attempt.email, err)
		}
	}
}

func TestAuthServiceResetAndSetPassword(t *testing.T) {
	t.Parallel()

	users := newMemoryAuthUsers()
	service := NewAuthService(users)
	if _, err := service.Register(context.Background(), "owner@example.com", "StrongPass1", "StrongPass1"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	temporary, err := service.ResetPassword(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("ResetPassword() unexpected error: %v", err)
	}
	if err := ValidatePasswordStrength(temporary); err != nil {
		t.Fatalf("temporary password %q is not strong: %v", temporary, err)
	}
	stored := users.byEmail["owner@example.com"]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(temporary)) != nil {
		t.Fatal("expected the temporary password to be stored")
	}
	if _, err := service.ResetPassword(context.Background(), "ghost@example.com"); !errors.Is(err, ErrAuthUserNotFound) {
		t.Fatalf("expected ErrAuthUserNotFound, got %v", err)
	}

	if err := service.SetPassword(context.Background(), "owner@example.com", "weak", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := service.SetPassword(context.Background(), "owner@example.com", "NewPass123", "NewPass124"); !errors.Is(err, ErrAuthPasswordMismatch) {
		t.Fatalf("expected ErrAuthPasswordMismatch, got %v", err)
	}
	if err := service.SetPassword(context.Background(), "owner@example.com", "NewPass123", "NewPass123"); err != nil {
		t.Fatalf("SetPassword() unexpected error: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "owner@example.com", "NewPass123"); err != nil {
		t.Fatalf("expected login with the new password, got %v", err)
	}
}
