package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marketauth/marketauth/internal/adapter/outbound/memory"
	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
	"github.com/marketauth/marketauth/internal/domain/otp"
)

const testSuperuserSecret = "test-superuser-secret-key"

// fakeHasher is a deterministic, fast PasswordHasher for tests.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (fakeHasher) Verify(plain, hashed string) (bool, error) {
	return hashed == "hashed:"+plain, nil
}

// fakeMinter returns canned tokens and records the last minted identity.
type fakeMinter struct {
	lastIdentity *identity.Identity
}

func (m *fakeMinter) Mint(_ context.Context, ident *identity.Identity) (*TokenPair, error) {
	m.lastIdentity = ident
	return &TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", ident.ID),
		RefreshToken: fmt.Sprintf("refresh-%d", ident.ID),
	}, nil
}

// testEnv bundles the services under test with their backing stores.
type testEnv struct {
	store  *memory.IdentityStore
	codes  *memory.CodeStore
	minter *fakeMinter
	auth   *AuthService
	roles  *RoleService
	reset  *ResetService
}

// newTestEnv builds all three services on fresh in-memory stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewIdentityStore()
	codeStore := memory.NewCodeStore()
	gen := credential.NewGenerator(nil)
	manager := otp.NewManager(codeStore, gen, otp.Config{})
	hasher := fakeHasher{}
	minter := &fakeMinter{}
	metrics := NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	auth, err := NewAuthService(store, manager, hasher, minter, metrics, logger)
	if err != nil {
		t.Fatalf("NewAuthService() unexpected error: %v", err)
	}
	// A zero sleep keeps the suite fast; jitter selection is tested
	// separately.
	auth.sleep = func(time.Duration) {}

	return &testEnv{
		store:  store,
		codes:  codeStore,
		minter: minter,
		auth:   auth,
		roles:  NewRoleService(store, gen, identity.NewPermissionMatrix(), hasher, testSuperuserSecret, metrics, logger),
		reset:  NewResetService(store, manager, gen, hasher, testSuperuserSecret, metrics, logger),
	}
}

// mustCreate seeds an identity and returns the stored copy.
func (e *testEnv) mustCreate(t *testing.T, ident *identity.Identity) *identity.Identity {
	t.Helper()
	if ident.TokenVersion == 0 {
		ident.TokenVersion = 1
	}
	if err := e.store.Create(context.Background(), ident); err != nil {
		t.Fatalf("seed identity %s: %v", ident.Email, err)
	}
	return ident
}

// privilegedIdentity builds a verified identity with the role, a password
// of "correct horse", and a role-prefixed secondary credential.
func privilegedIdentity(email string, role identity.Role, cred string) *identity.Identity {
	return &identity.Identity{
		Email:               email,
		Role:                role,
		PasswordHash:        "hashed:correct horse",
		SecondaryCredential: &cred,
		TokenVersion:        1,
		Active:              true,
		Verified:            true,
	}
}
