package auth

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tankcatalog/internal/db"
	"tankcatalog/internal/password"
	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
)

const testPassword = "correct-horse-battery"

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

// mockProvider is an in-memory UserProvider seeded per test.
type mockProvider struct {
	mu      sync.Mutex
	byID    map[string]*UserRecord
	byEmail map[string]string
	roles   map[string][]string
	nextID  int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		byID:    map[string]*UserRecord{},
		byEmail: map[string]string{},
		roles:   map[string][]string{},
	}
}

func (m *mockProvider) put(rec UserRecord, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := rec
	m.byID[rec.ID] = &copied
	m.byEmail[rec.Email] = rec.ID
	m.roles[rec.ID] = append([]string{}, roles...)
}

func (m *mockProvider) GetUserByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrProviderNotFound
	}
	copied := *m.byID[id]
	return &copied, nil
}

func (m *mockProvider) GetUserByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockProvider) CreateUser(_ context.Context, input CreateUserInput) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[input.Email]; exists {
		return nil, ErrProviderDuplicate
	}
	m.nextID++
	rec := &UserRecord{
		ID:           "user-" + string(rune('0'+m.nextID)),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.byID[rec.ID] = rec
	m.byEmail[rec.Email] = rec.ID
	return rec, nil
}

func (m *mockProvider) Roles(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roles := append([]string{}, m.roles[userID]...)
	sort.Strings(roles)
	return roles, nil
}

func (m *mockProvider) GrantRole(_ context.Context, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = append(m.roles[userID], role)
	return nil
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()

	h, err := password.NewHasher(password.Params{
		MemoryKB:    8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func newTestTokens(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager(token.Config{
		SigningKey: testSigningKey,
		Issuer:     "tankcatalog-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func newTestSessionStore(t *testing.T) *session.SQLStore {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return session.NewSQLStore(conn)
}

func newTestLimiter(t *testing.T, maxAttempts int) *LoginLimiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter, err := NewLoginLimiter(client, LimiterConfig{
		MaxAttempts: maxAttempts,
		Cooldown:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewLoginLimiter failed: %v", err)
	}
	return limiter
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEngine builds an engine with a real sqlite session store and an
// in-memory provider seeded with alice.
func newTestEngine(t *testing.T, cfg Config, limiter *LoginLimiter) (*Engine, *mockProvider, *session.SQLStore) {
	t.Helper()

	provider := newMockProvider()
	hasher := newTestHasher(t)

	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	provider.put(UserRecord{
		ID:           "user-alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Add(-24 * time.Hour),
	}, "User")

	sessions := newTestSessionStore(t)
	engine, err := NewEngine(cfg, sessions, provider, hasher, newTestTokens(t), limiter, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, provider, sessions
}
