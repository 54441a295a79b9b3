package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/pkg/clients/backend"
)

type fakeGateway struct {
	resp      *models.AuthResponse
	loginErr  error
	logoutErr error
	token     string
	logouts   int
}

func (f *fakeGateway) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.resp, nil
}

func (f *fakeGateway) Logout(ctx context.Context) error {
	f.logouts++
	return f.logoutErr
}

func (f *fakeGateway) SetToken(token string) { f.token = token }

type countingListener struct {
	started int
	ended   int
	user    models.User
}

func (c *countingListener) SessionStarted(ctx context.Context, user models.User) {
	c.started++
	c.user = user
}

func (c *countingListener) SessionEnded() { c.ended++ }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLogin_StartsSessionAndPersistsToken(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)
	gw := &fakeGateway{resp: &models.AuthResponse{Token: token, User: models.User{ID: 7, Name: "Awa"}}}
	store := NewMemoryStore()
	listener := &countingListener{}
	m := NewManager(store, gw, zaptest.NewLogger(t))
	m.Subscribe(listener)
	defer m.Dispose()

	user, err := m.Login(context.Background(), models.Credentials{Email: " awa@salon.sn ", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, token, gw.token)
	assert.Equal(t, 1, listener.started)
	assert.Equal(t, "Awa", listener.user.Name)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, stored.Token)
	assert.True(t, stored.ExpiresAt.Equal(exp))

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, token, current.Token)
}

func TestLogin_Errors(t *testing.T) {
	m := NewManager(NewMemoryStore(), &fakeGateway{}, nil)
	_, err := m.Login(context.Background(), models.Credentials{Email: "", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	unauthorized := fmt.Errorf("login: %w", &backend.APIError{StatusCode: http.StatusUnauthorized})
	m = NewManager(NewMemoryStore(), &fakeGateway{loginErr: unauthorized}, nil)
	_, err = m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	m = NewManager(NewMemoryStore(), &fakeGateway{loginErr: errors.New("dial tcp: refused")}, nil)
	_, err = m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeGateway))

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestLogout_EndsSessionEvenWhenBackendFails(t *testing.T) {
	gw := &fakeGateway{
		resp:      &models.AuthResponse{Token: "opaque-token", User: models.User{ID: 1}},
		logoutErr: errors.New("timeout"),
	}
	store := NewMemoryStore()
	listener := &countingListener{}
	m := NewManager(store, gw, nil)
	m.Subscribe(listener)

	_, err := m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	require.NoError(t, m.Logout(context.Background()))

	assert.Equal(t, 1, gw.logouts)
	assert.Equal(t, 1, listener.ended)
	assert.Empty(t, gw.token)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestInit_RestoresValidSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), models.StoredSession{
		Token:     "restored",
		User:      models.User{ID: 3},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	gw := &fakeGateway{}
	listener := &countingListener{}
	m := NewManager(store, gw, nil)
	m.Subscribe(listener)

	require.NoError(t, m.Init(context.Background()))
	defer m.Dispose()

	assert.Equal(t, "restored", gw.token)
	assert.Equal(t, 1, listener.started)
}

func TestInit_DiscardsExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), models.StoredSession{
		Token:     "old",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	listener := &countingListener{}
	m := NewManager(store, &fakeGateway{}, nil)
	m.Subscribe(listener)

	require.NoError(t, m.Init(context.Background()))

	assert.Zero(t, listener.started)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestInit_NoStoredSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), &fakeGateway{}, nil)
	require.NoError(t, m.Init(context.Background()))
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestDispose_KeepsPersistedToken(t *testing.T) {
	gw := &fakeGateway{resp: &models.AuthResponse{Token: "opaque", User: models.User{ID: 1}}}
	store := NewMemoryStore()
	listener := &countingListener{}
	m := NewManager(store, gw, nil)
	m.Subscribe(listener)
	_, err := m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	m.Dispose()

	assert.Equal(t, 1, listener.ended)
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque", stored.Token)
}

func TestExpire_EndsSession(t *testing.T) {
	gw := &fakeGateway{resp: &models.AuthResponse{Token: "opaque", User: models.User{ID: 1}}}
	store := NewMemoryStore()
	listener := &countingListener{}
	m := NewManager(store, gw, nil)
	m.Subscribe(listener)
	_, err := m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	m.expire(m.generation)

	assert.Equal(t, 1, listener.ended)
	_, ok := m.Current()
	assert.False(t, ok)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExpire_StaleTimerKeepsNewSession(t *testing.T) {
	gw := &fakeGateway{resp: &models.AuthResponse{Token: "first", User: models.User{ID: 1}}}
	store := NewMemoryStore()
	listener := &countingListener{}
	m := NewManager(store, gw, nil)
	m.Subscribe(listener)
	defer m.Dispose()

	_, err := m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	firstGeneration := m.generation

	gw.resp = &models.AuthResponse{Token: "second", User: models.User{ID: 1}}
	_, err = m.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	m.expire(firstGeneration)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "second", current.Token)
	assert.Equal(t, "second", gw.token)
	assert.Equal(t, 1, listener.ended)
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Token)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	assert.True(t, TokenExpiry(signedToken(t, exp)).Equal(exp))
	assert.True(t, TokenExpiry("not-a-jwt").IsZero())
}
