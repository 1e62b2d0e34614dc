package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/linebaby/linebaby/internal/db/dbgen"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]dbgen.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]dbgen.User)}
}

func (m *memStore) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == arg.Email {
			return dbgen.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := dbgen.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(_ context.Context, id string) (dbgen.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "secret")

	reg, err := svc.Register(ctx, "ana@example.com", "correct horse", "Ana")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(reg.User.ID, "user_") {
		t.Errorf("user id = %q", reg.User.ID)
	}

	if _, err := svc.Register(ctx, "ana@example.com", "another pass", "Ana 2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register = %v, want ErrEmailTaken", err)
	}

	login, err := svc.Login(ctx, "ana@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := svc.ValidateToken(login.Token)
	if err != nil || id != reg.User.ID {
		t.Errorf("ValidateToken = %q, %v; want %q", id, err, reg.User.ID)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password Login = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email Login = %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	token, err := svc.issueToken("user_1")
	if err != nil {
		t.Fatal(err)
	}

	other := NewService(newMemStore(), "other-secret")
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature = %v, want ErrInvalidToken", err)
	}

	svc.now = func() time.Time { return time.Now().Add(tokenTTL + time.Hour) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token = %v, want ErrInvalidToken", err)
	}

	if _, err := svc.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	token, _ := svc.issueToken("user_42")

	var seen string
	h := svc.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
	if seen != "user_42" {
		t.Errorf("handler saw user %q", seen)
	}
}

func TestHandlers(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	h := NewHandler(svc)

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	for _, tc := range []struct {
		body   string
		status int
	}{
		{`{`, http.StatusBadRequest},
		{`{"email":"a@b.c","password":"12345678"}`, http.StatusBadRequest},
		{`{"email":"not an email","password":"12345678","displayName":"A"}`, http.StatusBadRequest},
		{`{"email":"a@b.c","password":"short","displayName":"A"}`, http.StatusBadRequest},
		{`{"email":" A@B.c ","password":"12345678","displayName":"A"}`, http.StatusCreated},
		{`{"email":"a@b.c","password":"12345678","displayName":"B"}`, http.StatusConflict},
	} {
		if rec := post(h.Register, tc.body); rec.Code != tc.status {
			t.Errorf("Register(%s) = %d, want %d: %s", tc.body, rec.Code, tc.status, rec.Body)
		}
	}

	rec := post(h.Login, `{"email":"A@b.c","password":"12345678"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Login = %d: %s", rec.Code, rec.Body)
	}
	var res AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Token == "" || res.User.Email != "a@b.c" {
		t.Errorf("login result = %+v", res)
	}

	if rec := post(h.Login, `{"email":"a@b.c","password":"87654321"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad Login = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(WithUserID(req.Context(), res.User.ID))
	me := httptest.NewRecorder()
	h.Me(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), `"displayName":"A"`) {
		t.Errorf("Me = %d %s", me.Code, me.Body)
	}
}
