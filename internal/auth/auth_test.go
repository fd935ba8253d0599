package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/suran0330/kicholgy-sub001/internal/store"
)

const demoPassword = "password123"

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory(bcrypt.MinCost)
	require.NoError(t, SeedDemo(d, demoPassword))
	return d
}

func newSession(t *testing.T, st store.Store, d *Directory, v Verifier) *Session {
	t.Helper()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return NewSession(context.Background(), st, d, v, zap.NewNop(), Options{
		Now: func() time.Time { return fixed },
	})
}

func TestLoginWithSentinelPassword(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})
	s.OpenLogin(ctx)

	require.NoError(t, s.Login(ctx, "sarah@example.com", demoPassword))

	st := s.State()
	require.True(t, st.IsAuthenticated())
	assert.Equal(t, "user-1", st.User.ID)
	assert.False(t, st.IsLoginModalOpen)
	assert.False(t, st.IsSignupModalOpen)
	assert.False(t, st.IsLoading)
}

func TestLoginWrongPasswordLeavesUserUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})

	err := s.Login(ctx, "sarah@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, s.State().User)
	assert.False(t, s.State().IsLoading)

	require.NoError(t, s.Login(ctx, "mike@example.com", demoPassword))
	err = s.Login(ctx, "sarah@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "user-2", s.State().User.ID)
}

func TestLoginUnknownEmail(t *testing.T) {
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})
	err := s.Login(context.Background(), "SARAH@example.com", demoPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "email match is exact")
}

func TestHashVerifier(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	s := newSession(t, store.NewMemory(), d, HashVerifier{})

	require.NoError(t, s.Signup(ctx, "new@example.com", "s3cret!", "New", "Person"))
	s.Logout(ctx)

	assert.ErrorIs(t, s.Login(ctx, "new@example.com", demoPassword), ErrInvalidCredentials)
	require.NoError(t, s.Login(ctx, "new@example.com", "s3cret!"))
	require.NoError(t, s.Login(ctx, "sarah@example.com", demoPassword))
}

func TestSignupExistingEmailFails(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	before := d.Len()
	s := newSession(t, store.NewMemory(), d, SentinelVerifier{Password: demoPassword})

	err := s.Signup(ctx, "sarah@example.com", "x", "Sarah", "Again")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, before, d.Len())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.State().IsLoading)
}

func TestSignupFreshEmail(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	before := d.Len()
	s := newSession(t, store.NewMemory(), d, SentinelVerifier{Password: demoPassword})
	s.OpenSignup(ctx)

	require.NoError(t, s.Signup(ctx, "jo@example.com", "pw", "Jo", "Park"))

	assert.Equal(t, before+1, d.Len())
	u, ok := d.FindByEmail("jo@example.com")
	require.True(t, ok)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.IsInsider)
	assert.Empty(t, u.Orders)
	assert.Equal(t, "2026-10-19", u.JoinDate)

	st := s.State()
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, u.ID, st.User.ID)
	assert.False(t, st.IsSignupModalOpen)
}

func TestModalMutualExclusion(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})

	st := s.OpenLogin(ctx)
	assert.True(t, st.IsLoginModalOpen)
	assert.False(t, st.IsSignupModalOpen)

	st = s.OpenSignup(ctx)
	assert.True(t, st.IsSignupModalOpen)
	assert.False(t, st.IsLoginModalOpen)

	st = s.CloseLogin(ctx)
	assert.True(t, st.IsSignupModalOpen, "closing one modal leaves the other")

	st = s.CloseSignup(ctx)
	assert.False(t, st.IsSignupModalOpen)
}

func TestLogoutKeepsModals(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})
	require.NoError(t, s.Login(ctx, "sarah@example.com", demoPassword))
	s.OpenSignup(ctx)

	st := s.Logout(ctx)
	assert.Nil(t, st.User)
	assert.True(t, st.IsSignupModalOpen)
}

func TestUserPersistence(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := newDirectory(t)
	s := newSession(t, mem, d, SentinelVerifier{Password: demoPassword})

	s.OpenLogin(ctx)
	_, ok, _ := mem.Get(ctx, StorageKey)
	assert.False(t, ok, "modal changes are not persisted")

	require.NoError(t, s.Login(ctx, "sarah@example.com", demoPassword))
	raw, ok, err := mem.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "sarah@example.com", u.Email)
	assert.Equal(t, StatusDelivered, u.Orders[0].Status)

	updated := u
	updated.FirstName = "Sara"
	s.UpdateUser(ctx, updated)
	raw, _, _ = mem.Get(ctx, StorageKey)
	assert.Contains(t, raw, `"firstName":"Sara"`)

	rehydrated := newSession(t, mem, d, SentinelVerifier{Password: demoPassword})
	require.True(t, rehydrated.IsAuthenticated())
	assert.Equal(t, "Sara", rehydrated.State().User.FirstName)

	s.Logout(ctx)
	_, ok, _ = mem.Get(ctx, StorageKey)
	assert.False(t, ok, "logout deletes the persisted user")
}

func TestCorruptPersistedUser(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, StorageKey, `{"id":`))

	s := newSession(t, mem, newDirectory(t), SentinelVerifier{Password: demoPassword})
	assert.False(t, s.IsAuthenticated())
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	d := newDirectory(t)
	s := NewSession(context.Background(), store.NewMemory(), d, SentinelVerifier{Password: demoPassword}, zap.NewNop(), Options{
		LoginDelay: 200 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "sarah@example.com", demoPassword) }()

	require.Eventually(t, func() bool { return s.State().IsLoading }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Login(context.Background(), "mike@example.com", demoPassword), ErrBusy)
	assert.ErrorIs(t, s.Signup(context.Background(), "x@example.com", "pw", "X", "Y"), ErrBusy)

	require.NoError(t, <-done)
	assert.Equal(t, "user-1", s.State().User.ID)
}

func TestLoginHonoursContext(t *testing.T) {
	s := NewSession(context.Background(), store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword}, zap.NewNop(), Options{
		LoginDelay: time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Login(ctx, "sarah@example.com", demoPassword), context.Canceled)
	assert.False(t, s.State().IsLoading)
	assert.False(t, s.IsAuthenticated())
}

func TestStateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword})
	require.NoError(t, s.Login(ctx, "sarah@example.com", demoPassword))

	st := s.State()
	st.User.Email = "mutated@example.com"
	assert.Equal(t, "sarah@example.com", s.State().User.Email)
}

func TestOrderStatusText(t *testing.T) {
	assert.True(t, StatusPending < StatusProcessing && StatusProcessing < StatusShipped && StatusShipped < StatusDelivered)

	b, err := json.Marshal(Order{ID: "o", Status: StatusShipped})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"shipped"`)

	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Processing"}`), &o))
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"lost"}`), &o))
	assert.Equal(t, "OrderStatus(9)", OrderStatus(9).String())
}

func TestSignupWithLongPassword(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	s := newSession(t, store.NewMemory(), d, HashVerifier{})
	long := strings.Repeat("a", 80)

	require.NoError(t, s.Signup(ctx, "long@example.com", long, "Long", "Password"))
	assert.True(t, s.IsAuthenticated())
	s.Logout(ctx)

	require.NoError(t, s.Login(ctx, "long@example.com", long))
	s.Logout(ctx)
	// Same first 72 bytes, different tail.
	assert.ErrorIs(t, s.Login(ctx, "long@example.com", strings.Repeat("a", 72)+"b"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.Login(ctx, "long@example.com", strings.Repeat("a", 72)), ErrInvalidCredentials)
}

func TestSeedDemoWithLongPassword(t *testing.T) {
	d := NewDirectory(bcrypt.MinCost)
	long := strings.Repeat("p", 100)
	require.NoError(t, SeedDemo(d, long))

	s := newSession(t, store.NewMemory(), d, HashVerifier{})
	require.NoError(t, s.Login(context.Background(), "sarah@example.com", long))
}

func TestRejectedLoginLogsOnlyEmailDomain(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSession(context.Background(), store.NewMemory(), newDirectory(t), SentinelVerifier{Password: demoPassword}, zap.New(core), Options{})

	require.ErrorIs(t, s.Login(context.Background(), "sarah@example.com", "nope"), ErrInvalidCredentials)

	entries := logs.FilterMessage("auth: login rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "example.com", fields["email_domain"])
	for _, v := range fields {
		assert.NotContains(t, v, "sarah")
	}
}
