package middleware

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/db"
	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type gateFixture struct {
	router *gin.Engine
	store  *session.SQLStore
	tokens *token.Manager
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	fx := &gateFixture{}

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	fx.store = session.NewSQLStore(conn)

	fx.tokens, err = token.NewManager(token.Config{
		SigningKey: testSigningKey,
		Issuer:     "tankcatalog-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	fx.router = newRouter(fx.tokens, fx.store)
	return fx
}

func newRouter(tokens *token.Manager, store session.Store) *gin.Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)

	router := gin.New()
	router.Use(Pipeline(log, tokens, store, CookieOptions{})...)

	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/protected", RequireAuthenticated(), func(c *gin.Context) {
		ident, _ := auth.IdentityFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": ident.Username, "roles": ident.Roles})
	})
	router.GET("/admin", RequireRole(RoleAdministrator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

// seedSession inserts a session row with the given age and lifetime and
// returns a cookie whose token deliberately outlives the session, so the
// gate's server-side check is what decides, not the token signature.
func (fx *gateFixture) seedSession(t *testing.T, loginTime time.Time, lifetime time.Duration, roles ...string) *http.Cookie {
	t.Helper()

	sess := &session.Session{
		ID:             uuid.NewString(),
		UserID:         "user-alice",
		LoginTime:      loginTime,
		ExpirationTime: loginTime.Add(lifetime),
	}
	if err := fx.store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	return fx.cookieFor(t, sess.ID, roles...)
}

func (fx *gateFixture) cookieFor(t *testing.T, sessionID string, roles ...string) *http.Cookie {
	t.Helper()

	signed, err := fx.tokens.Issue("user-alice", "alice", sessionID, roles, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return &http.Cookie{Name: IdentityCookieName, Value: signed}
}

func (fx *gateFixture) do(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func assertCookieCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == IdentityCookieName && c.Value == "" && c.MaxAge < 0 {
			return
		}
	}
	t.Fatalf("expected identity cookie to be cleared, got %v", rec.Header().Values("Set-Cookie"))
}

func TestGatePassesAnonymousTraffic(t *testing.T) {
	fx := newGateFixture(t)

	if rec := fx.do("/public", nil); rec.Code != http.StatusOK {
		t.Fatalf("anonymous public request: status %d", rec.Code)
	}
	if rec := fx.do("/protected", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous protected request: status %d, want 401", rec.Code)
	}
}

func TestGateAcceptsOpenUnexpiredSession(t *testing.T) {
	fx := newGateFixture(t)

	// Logged in 29 minutes ago with a 30 minute horizon: still active.
	cookie := fx.seedSession(t, time.Now().UTC().Add(-29*time.Minute), 30*time.Minute, RoleUser)

	rec := fx.do("/protected", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	// Identity must reach the handler unchanged.
	if body := rec.Body.String(); !strings.Contains(body, "alice") || !strings.Contains(body, RoleUser) {
		t.Fatalf("identity not preserved downstream: %s", body)
	}
}

func TestGateRejectsExpiredSession(t *testing.T) {
	fx := newGateFixture(t)

	// Logged in 31 minutes ago with a 30 minute horizon: one minute past
	// the fixed expiration, logout time still null.
	cookie := fx.seedSession(t, time.Now().UTC().Add(-31*time.Minute), 30*time.Minute, RoleUser)

	rec := fx.do("/protected", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	assertCookieCleared(t, rec)
}

func TestGateRejectsUnknownSession(t *testing.T) {
	fx := newGateFixture(t)

	// Well-formed and well-signed cookie referencing a session that was
	// never created. Signature validity alone is never trusted.
	cookie := fx.cookieFor(t, uuid.NewString(), RoleAdministrator)

	rec := fx.do("/protected", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	assertCookieCleared(t, rec)
}

func TestGateRejectsMalformedSessionID(t *testing.T) {
	fx := newGateFixture(t)

	cookie := fx.cookieFor(t, "not-a-uuid", RoleUser)

	rec := fx.do("/protected", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	assertCookieCleared(t, rec)
}

func TestGateRejectsReplayedCookieAfterLogout(t *testing.T) {
	fx := newGateFixture(t)

	sess := &session.Session{
		ID:             uuid.NewString(),
		UserID:         "user-alice",
		LoginTime:      time.Now().UTC(),
		ExpirationTime: time.Now().UTC().Add(30 * time.Minute),
	}
	if err := fx.store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	cookie := fx.cookieFor(t, sess.ID, RoleUser)

	if rec := fx.do("/protected", cookie); rec.Code != http.StatusOK {
		t.Fatalf("pre-logout status %d, want 200", rec.Code)
	}

	if err := fx.store.Close(context.Background(), sess.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Replaying the original cookie after logout must fail even though the
	// session row is unexpired and the signature is intact.
	rec := fx.do("/protected", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout status %d, want 401", rec.Code)
	}
	assertCookieCleared(t, rec)
}

func TestGateIgnoresTamperedCookie(t *testing.T) {
	fx := newGateFixture(t)

	foreign, err := token.NewManager(token.Config{
		SigningKey: []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:     "tankcatalog-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	signed, err := foreign.Issue("user-alice", "alice", uuid.NewString(), []string{RoleAdministrator}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// A foreign signature never yields an identity, so the request is
	// anonymous and protected routes reject it.
	rec := fx.do("/protected", &http.Cookie{Name: IdentityCookieName, Value: signed})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

// failingStore simulates a storage outage during the gate lookup.
type failingStore struct {
	session.Store
}

func (f *failingStore) GetByID(context.Context, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}

func TestGateFailsClosedOnStorageError(t *testing.T) {
	fx := newGateFixture(t)
	router := newRouter(fx.tokens, &failingStore{Store: fx.store})

	cookie := fx.cookieFor(t, uuid.NewString(), RoleAdministrator)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500: an unverifiable session is never a free pass", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	fx := newGateFixture(t)

	adminCookie := fx.seedSession(t, time.Now().UTC(), 30*time.Minute, RoleAdministrator)
	userCookie := fx.seedSession(t, time.Now().UTC(), 30*time.Minute, RoleUser)

	if rec := fx.do("/admin", adminCookie); rec.Code != http.StatusOK {
		t.Fatalf("administrator: status %d, want 200", rec.Code)
	}
	if rec := fx.do("/admin", userCookie); rec.Code != http.StatusForbidden {
		t.Fatalf("plain user: status %d, want 403", rec.Code)
	}
	if rec := fx.do("/admin", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", rec.Code)
	}
}
