package auth

import (
	"testing"
	"time"

	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	if user, ok := r.users[email]; ok {
		return user, nil
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *models.User) {
	t.Helper()

	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}

	user := &models.User{
		Email:    "admin@example.com",
		Password: hash,
		Role:     "admin",
		IsActive: true,
	}
	user.ID = uuid.New()

	repo := &fakeUserRepo{users: map[string]*models.User{user.Email: user}}
	return NewService(repo, "test-secret", 15*time.Minute), user
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, user := newTestService(t)

	resp, err := svc.Login(models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("no access token issued")
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d", resp.ExpiresIn)
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, user := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		mutate   func()
	}{
		{"wrong password", user.Email, "nope", nil},
		{"unknown email", "nobody@example.com", "correct-horse", nil},
		{"disabled account", user.Email, "correct-horse", func() { user.IsActive = false }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.mutate != nil {
				test.mutate()
			}
			if _, err := svc.Login(models.LoginRequest{Email: test.email, Password: test.password}); err == nil {
				t.Error("expected login to fail")
			}
		})
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, user := newTestService(t)

	resp, err := svc.Login(models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatal(err)
	}

	other := NewService(&fakeUserRepo{}, "different-secret", 15*time.Minute)
	if _, err := other.ValidateToken(resp.AccessToken); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) should fail", token)
		}
	}
}

func TestChangePassword(t *testing.T) {
	svc, user := newTestService(t)

	if err := svc.ChangePassword(user.ID, "wrong", "new-password-123"); err == nil {
		t.Error("change with wrong current password must fail")
	}

	if err := svc.ChangePassword(user.ID, "correct-horse", "new-password-123"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if _, err := svc.Login(models.LoginRequest{Email: user.Email, Password: "new-password-123"}); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}
