package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/internal/profiles"
	pkgAuth "github.com/labstock/labstock-backend/pkg/auth"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret-test-secret-test-secret",
	Issuer:            "labstock-test",
	ExpirationMinutes: 15,
	SessionTTLMinutes: 60,
}

// fast argon parameters; production values come from env
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeProfileRepo struct {
	byUsername map[string]*models.Profile
	created    []profiles.CreateProfileDTO
	lastLogin  map[uuid.UUID]time.Time
	createErr  error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		byUsername: map[string]*models.Profile{},
		lastLogin:  map[uuid.UUID]time.Time{},
	}
}

func (f *fakeProfileRepo) FindByUsername(_ context.Context, username string) (*models.Profile, error) {
	profile, ok := f.byUsername[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, dto)
	model := dto.ToModel()
	model.ID = uuid.New()
	return model, nil
}

func (f *fakeProfileRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeSessionManager struct {
	opened  []string
	revoked []string
}

func (f *fakeSessionManager) Open(_ context.Context, accessID string) error {
	f.opened = append(f.opened, accessID)
	return nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeProfileRepo, *fakeSessionManager) {
	t.Helper()
	repo := newFakeProfileRepo()
	sessions := &fakeSessionManager{}
	svc, err := NewService(ServiceParams{
		ProfileRepo:    repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions
}

func seedAccount(t *testing.T, repo *fakeProfileRepo, username, password string, active bool) *models.Profile {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	profile := &models.Profile{
		ID:           uuid.New(),
		ExternalID:   "ext-" + username,
		Username:     username,
		PasswordHash: hash,
		Role:         enums.ProfileRoleTeam,
		IsActive:     active,
	}
	repo.byUsername[username] = profile
	return profile
}

func TestLoginMintsVerifiableToken(t *testing.T) {
	t.Parallel()

	svc, repo, sessions := newTestService(t)
	profile := seedAccount(t, repo, "explorer", "correct horse battery", true)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Username: "Explorer",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if resp.Profile.ID != profile.ID {
		t.Fatalf("expected profile %s, got %s", profile.ID, resp.Profile.ID)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ProfileID != profile.ID {
		t.Fatalf("expected subject %s, got %s", profile.ID, claims.ProfileID)
	}
	if len(sessions.opened) != 1 || sessions.opened[0] != claims.ID {
		t.Fatalf("expected session opened for jti %s, got %v", claims.ID, sessions.opened)
	}
	if _, ok := repo.lastLogin[profile.ID]; !ok {
		t.Fatal("expected last login recorded")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	seedAccount(t, repo, "explorer", "right password here", true)

	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "explorer",
		Password: "wrong password here",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("credential failures must not leak detail, got %q", typed.Message())
	}
}

func TestLoginRejectsUnknownUsernameWithSameMessage(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "ghost",
		Password: "whatever password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected uniform message, got %q", typed.Message())
	}
}

func TestLoginRejectsDeactivatedProfile(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	seedAccount(t, repo, "dormant", "a long valid password", false)

	_, err := svc.Login(context.Background(), LoginRequest{
		Username: "dormant",
		Password: "a long valid password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRequiresSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newTestService(t)
	err := svc.Logout(context.Background(), "  ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
}

func TestRegisterGeneratesTempPassword(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username:   "NewMember",
		ExternalID: "badge-0042",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.TempPassword == nil || len(*resp.TempPassword) != tempPasswordLength {
		t.Fatalf("expected generated temp password of length %d", tempPasswordLength)
	}
	if resp.Profile.Username != "newmember" {
		t.Fatalf("expected lowercased username, got %q", resp.Profile.Username)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one profile created, got %d", len(repo.created))
	}
	dto := repo.created[0]
	if dto.Role != enums.ProfileRoleTeam {
		t.Fatalf("expected default team role, got %s", dto.Role)
	}
	if !strings.HasPrefix(dto.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", dto.PasswordHash)
	}

	ok, err := security.VerifyPassword(*resp.TempPassword, dto.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password must verify against stored hash: ok=%v err=%v", ok, err)
	}
}

func TestRegisterKeepsProvidedPasswordPrivate(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username:   "member",
		ExternalID: "badge-0043",
		Password:   "chosen by the admin",
		Role:       "admin",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.TempPassword != nil {
		t.Fatal("temp password must be absent when one was provided")
	}
	if repo.created[0].Role != enums.ProfileRoleAdmin {
		t.Fatalf("expected admin role, got %s", repo.created[0].Role)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:   "member",
		ExternalID: "badge-0044",
		Role:       "owner",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
