package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	"github.com/Payphone-Digital/account-service/internal/model"
	"github.com/Payphone-Digital/account-service/internal/repository"
	"github.com/Payphone-Digital/account-service/pkg/cache"
	"github.com/Payphone-Digital/account-service/pkg/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	userSvc  *UserService
	authSvc  *AuthService
	tokens   *TokenService
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDB() error = %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDB(db) })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	hasher := NewBcryptHasher(bcrypt.MinCost)

	tokens := NewTokenService("test-secret")
	tokens.now = now

	local := cache.NewCache()
	t.Cleanup(local.Stop)

	auth := NewAuthService(users, sessions, tokens, hasher, NewLocalSessionCache(local), time.Hour)
	auth.now = now

	return &fixture{
		db:       db,
		users:    users,
		sessions: sessions,
		userSvc:  NewUserService(users, hasher),
		authSvc:  auth,
		tokens:   tokens,
		clock:    &clock,
	}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func signup(email string) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		Name:           "Test User",
		Email:          email,
		Password:       "secret1",
		PasswordSecond: "secret1",
		Cellphone:      "555",
	}
}

func (f *fixture) mustCreate(t *testing.T, email string) uint {
	t.Helper()
	res, err := f.userSvc.CreateUser(context.Background(), signup(email))
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return res.ID
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.userSvc.CreateUser(ctx, signup("a@x.io"))
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if res.Message != "User successfully created with ID: 1" {
		t.Errorf("Unexpected message %q", res.Message)
	}

	stored, _ := f.users.FindUser(ctx, repository.UserFilter{ID: res.ID})
	if stored.Password == "secret1" {
		t.Error("Expected password to be stored hashed")
	}
	if !stored.IsActive() {
		t.Error("Expected new user to be active")
	}
}

func TestCreateUser_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "taken@x.io")

	mismatch := signup("new@x.io")
	mismatch.PasswordSecond = "other1"

	invalid := signup("not-an-email")

	tests := []struct {
		name string
		req  dto.CreateUserRequest
		want error
	}{
		{name: "password mismatch", req: mismatch, want: apperrors.ErrPasswordMismatch},
		{name: "duplicate active email", req: signup("taken@x.io"), want: apperrors.ErrEmailExists},
		{name: "invalid email", req: invalid, want: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.userSvc.CreateUser(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateUser() error = %v, want %v", err, tt.want)
			}
		})
	}

	var count int64
	f.db.Model(&model.User{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected store untouched by rejected requests, got %d rows", count)
	}
}

func TestCreateUser_EmailReusableAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.mustCreate(t, "reuse@x.io")
	if err := f.userSvc.DeleteUser(ctx, id); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := f.userSvc.CreateUser(ctx, signup("reuse@x.io")); err != nil {
		t.Errorf("Expected email of deleted user to be reusable, got %v", err)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.mustCreate(t, "u@x.io")

	got, err := f.userSvc.GetUserByID(ctx, id)
	if err != nil || got.Email != "u@x.io" {
		t.Fatalf("GetUserByID() = %+v, %v", got, err)
	}

	name := "Renamed"
	password := "newpass1"
	if err := f.userSvc.UpdateUser(ctx, id, dto.UpdateUserRequest{Name: &name, Password: &password}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, _ = f.userSvc.GetUserByID(ctx, id)
	if got.Name != "Renamed" || got.Cellphone != "555" {
		t.Errorf("Expected name changed and cellphone kept, got %+v", got)
	}
	if _, err := f.authSvc.Login(ctx, "u@x.io", "newpass1"); err != nil {
		t.Errorf("Expected login with new password, got %v", err)
	}

	if err := f.userSvc.DeleteUser(ctx, id); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if _, err := f.userSvc.GetUserByID(ctx, id); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("GetUserByID() after delete error = %v, want ErrUserNotFound", err)
	}
	if err := f.userSvc.DeleteUser(ctx, id); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("Second DeleteUser() error = %v, want ErrUserNotFound", err)
	}
	if err := f.userSvc.UpdateUser(ctx, id, dto.UpdateUserRequest{Name: &name}); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("UpdateUser() on deleted user error = %v, want ErrUserNotFound", err)
	}

	var row model.User
	if err := f.db.First(&row, id).Error; err != nil {
		t.Fatalf("Expected row kept after soft delete, got %v", err)
	}
	if row.Status != model.UserStatusDeleted {
		t.Errorf("Expected deleted status, got %s", row.Status)
	}
}

func TestListUsers_ActiveOnlyWithoutPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, "a@x.io")
	gone := f.mustCreate(t, "b@x.io")
	_ = f.userSvc.DeleteUser(ctx, gone)

	users, err := f.userSvc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 || users[0].Email != "a@x.io" {
		t.Errorf("ListUsers() = %+v, want only a@x.io", users)
	}
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	create := func(name, email string, created time.Time, deleted bool) {
		u := &model.User{Name: name, Email: email, Password: "h", Status: model.UserStatusActive, CreatedAt: created}
		if deleted {
			u.Status = model.UserStatusDeleted
		}
		if err := f.users.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}
	create("Maria", "maria@x.io", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false)
	create("Mario", "mario@x.io", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), true)
	create("Luis", "luis@x.io", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false)

	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		q       dto.UserSearchQuery
		want    []string
		wantErr error
	}{
		{name: "no criteria returns both states", q: dto.UserSearchQuery{}, want: []string{"maria@x.io", "mario@x.io", "luis@x.io"}},
		{name: "deleted true", q: dto.UserSearchQuery{Deleted: str("true")}, want: []string{"mario@x.io"}},
		{name: "deleted other value means active", q: dto.UserSearchQuery{Deleted: str("no")}, want: []string{"maria@x.io", "luis@x.io"}},
		{name: "name substring", q: dto.UserSearchQuery{Name: "mari"}, want: []string{"maria@x.io", "mario@x.io"}},
		{name: "before", q: dto.UserSearchQuery{LoginAntes: "2024-02-01"}, want: []string{"maria@x.io"}},
		{name: "after", q: dto.UserSearchQuery{LoginDespues: "2024-02-01T00:00:00Z"}, want: []string{"mario@x.io", "luis@x.io"}},
		{
			name: "range",
			q:    dto.UserSearchQuery{LoginDespues: "2024-01-10", LoginAntes: "2024-03-01"},
			want: []string{"mario@x.io"},
		},
		{name: "all criteria", q: dto.UserSearchQuery{Name: "ma", Deleted: str("false"), LoginAntes: "2024-12-31"}, want: []string{"maria@x.io"}},
		{name: "bad date", q: dto.UserSearchQuery{LoginAntes: "yesterday"}, wantErr: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := f.userSvc.SearchUsers(ctx, tt.q)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SearchUsers() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SearchUsers() error = %v", err)
			}
			if len(users) != len(tt.want) {
				t.Fatalf("SearchUsers() returned %d users, want %d", len(users), len(tt.want))
			}
			for i, u := range users {
				if u.Email != tt.want[i] {
					t.Errorf("users[%d] = %s, want %s", i, u.Email, tt.want[i])
				}
			}
		})
	}
}

func TestBulkCreateUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mismatch := signup("c@x.io")
	mismatch.PasswordSecond = "nope99"

	res := f.userSvc.BulkCreateUsers(ctx, []dto.CreateUserRequest{
		signup("a@x.io"),
		signup("a@x.io"),
		mismatch,
		signup("d@x.io"),
		{Email: "broken"},
	})

	if res.Success != 2 || res.Failure != 3 {
		t.Errorf("BulkCreateUsers() = %d/%d, want 2/3", res.Success, res.Failure)
	}
	if res.Message != "Successfully created users: 2, Failed to create users: 3" {
		t.Errorf("Unexpected message %q", res.Message)
	}

	empty := f.userSvc.BulkCreateUsers(ctx, nil)
	if empty.Success != 0 || empty.Failure != 0 {
		t.Errorf("Expected 0/0 for empty batch, got %+v", empty)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.mustCreate(t, "login@x.io")

	res, err := f.authSvc.Login(ctx, "login@x.io", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !res.Expiration.Equal(f.clock.Add(time.Hour)) {
		t.Errorf("Expiration = %s, want now+1h", res.Expiration)
	}

	claims, err := f.tokens.Parse(res.Token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != id || claims.Email != "login@x.io" || len(claims.Roles) != 1 || claims.Roles[0] != "User" {
		t.Errorf("Unexpected claims %+v", claims)
	}
	if claims.Expiration != res.Expiration.UnixMilli() {
		t.Errorf("claims expiration = %d, want %d", claims.Expiration, res.Expiration.UnixMilli())
	}

	session, err := f.sessions.FindSession(ctx, repository.SessionFilter{Token: res.Token})
	if err != nil {
		t.Fatalf("Expected persisted session, got %v", err)
	}
	if session.UserID != id {
		t.Errorf("session user = %d, want %d", session.UserID, id)
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.mustCreate(t, "who@x.io")

	if _, err := f.authSvc.Login(ctx, "who@x.io", "wrong"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := f.authSvc.Login(ctx, "nobody@x.io", "secret1"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}

	_ = f.userSvc.DeleteUser(ctx, id)
	if _, err := f.authSvc.Login(ctx, "who@x.io", "secret1"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("deleted user error = %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.mustCreate(t, "v@x.io")

	res, err := f.authSvc.Login(ctx, "v@x.io", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	identity, err := f.authSvc.ValidateToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if identity.UserID != id || !identity.HasRole("User") {
		t.Errorf("Unexpected identity %+v", identity)
	}

	// Served from cache the second time.
	if _, err := f.authSvc.ValidateToken(ctx, res.Token); err != nil {
		t.Errorf("cached ValidateToken() error = %v", err)
	}

	f.advance(time.Hour)
	if _, err := f.authSvc.ValidateToken(ctx, res.Token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("ValidateToken() at expiry error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "r@x.io")
	user, _ := f.users.FindUser(ctx, repository.UserFilter{Email: "r@x.io"})

	// Signed correctly but never persisted as a session.
	orphan, _ := f.tokens.Issue(user, []string{"User"}, f.clock.Add(time.Hour))

	forged := NewTokenService("other-secret")
	forged.now = f.tokens.now
	foreign, _ := forged.Issue(user, []string{"User"}, f.clock.Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong signature", token: foreign},
		{name: "no session", token: orphan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.authSvc.ValidateToken(ctx, tt.token); !errors.Is(err, apperrors.ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "out@x.io")

	res, _ := f.authSvc.Login(ctx, "out@x.io", "secret1")
	if _, err := f.authSvc.ValidateToken(ctx, res.Token); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if err := f.authSvc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, err := f.authSvc.ValidateToken(ctx, res.Token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("ValidateToken() after logout error = %v, want ErrInvalidToken", err)
	}
	if err := f.authSvc.Logout(ctx, res.Token); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("second Logout() error = %v, want ErrSessionNotFound", err)
	}
	if err := f.authSvc.Logout(ctx, "unknown"); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("Logout(unknown) error = %v, want ErrSessionNotFound", err)
	}

	session, _ := f.sessions.FindSession(ctx, repository.SessionFilter{Token: res.Token})
	if !session.Expiration.Equal(*f.clock) {
		t.Errorf("session expiration = %s, want logout time %s", session.Expiration, *f.clock)
	}
}

func TestEmptyKeysMatchNobody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "first@x.io")

	if _, err := f.authSvc.Login(ctx, "", "secret1"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("Login(empty email) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.userSvc.GetUserByID(ctx, 0); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("GetUserByID(0) error = %v, want ErrUserNotFound", err)
	}
	name := "Nobody"
	if err := f.userSvc.UpdateUser(ctx, 0, dto.UpdateUserRequest{Name: &name}); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("UpdateUser(0) error = %v, want ErrUserNotFound", err)
	}
	if err := f.userSvc.DeleteUser(ctx, 0); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("DeleteUser(0) error = %v, want ErrUserNotFound", err)
	}

	res, err := f.authSvc.Login(ctx, "first@x.io", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := f.authSvc.Logout(ctx, ""); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("Logout(empty) error = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.authSvc.ValidateToken(ctx, res.Token); err != nil {
		t.Errorf("Expected session to survive empty logout, got %v", err)
	}
}

func TestValidateToken_LogoutOnAnotherInstance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "multi@x.io")

	local := cache.NewCache()
	t.Cleanup(local.Stop)
	other := NewAuthService(f.users, f.sessions, f.tokens, NewBcryptHasher(bcrypt.MinCost), NewLocalSessionCache(local), time.Hour)
	other.now = f.authSvc.now

	res, err := f.authSvc.Login(ctx, "multi@x.io", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := f.authSvc.ValidateToken(ctx, res.Token); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if err := other.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout() on other instance error = %v", err)
	}

	if _, err := f.authSvc.ValidateToken(ctx, res.Token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("ValidateToken() with stale cache error = %v, want ErrInvalidToken", err)
	}
}
