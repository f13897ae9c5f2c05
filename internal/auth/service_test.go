// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/identity-service/internal/authz"
	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/permission"
)

const testPassword = "Password@123"

var (
	hashOnce   sync.Once
	cachedHash string
)

func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := core.HashPassword(testPassword)
		if err != nil {
			panic(err)
		}
		cachedHash = h
	})
	return cachedHash
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type storedUser struct {
	info        UserInfo
	refreshHash string
	refreshExp  time.Time
}

type fakeStore struct {
	mu         sync.Mutex
	users      map[string]*storedUser
	roles      map[string]RoleRef
	userRoles  map[string][]string
	roleClaims map[string][]claims.Claim
	userClaims map[string][]claims.Claim
	roleErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*storedUser),
		roles:      make(map[string]RoleRef),
		userRoles:  make(map[string][]string),
		roleClaims: make(map[string][]claims.Claim),
		userClaims: make(map[string][]claims.Claim),
	}
}

func (f *fakeStore) addUser(t *testing.T, u UserInfo) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	u.PasswordHash = testPasswordHash(t)
	f.users[u.ID] = &storedUser{info: u}
}

func (f *fakeStore) addRole(id, name string, perms ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[id] = RoleRef{ID: id, Name: name}
	for _, p := range perms {
		f.roleClaims[id] = append(f.roleClaims[id], claims.Permission(p))
	}
}

func (f *fakeStore) grant(roleID, perm string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleClaims[roleID] = append(f.roleClaims[roleID], claims.Permission(perm))
}

func (f *fakeStore) assign(userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userRoles[userID] = append(f.userRoles[userID], roleIDs...)
}

func (f *fakeStore) slot(userID string) (string, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	return u.refreshHash, u.refreshExp
}

func (f *fakeStore) GetByUserName(
	_ context.Context,
	userName string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.info.UserName == userName {
			info := u.info
			return &info, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.info.Email == email {
			info := u.info
			return &info, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID].info.PasswordHash = hash
	return nil
}

func (f *fakeStore) RolesForUser(_ context.Context, userID string) ([]RoleRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return nil, f.roleErr
	}
	var out []RoleRef
	for _, id := range f.userRoles[userID] {
		out = append(out, f.roles[id])
	}
	return out, nil
}

func (f *fakeStore) ClaimsForRole(_ context.Context, roleID string) ([]claims.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]claims.Claim(nil), f.roleClaims[roleID]...), nil
}

func (f *fakeStore) ClaimsForUser(_ context.Context, userID string) ([]claims.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]claims.Claim(nil), f.userClaims[userID]...), nil
}

func (f *fakeStore) StoreRefreshToken(
	_ context.Context,
	userID, hash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.refreshHash = hash
	u.refreshExp = expiresAt
	return nil
}

func (f *fakeStore) RotateRefreshToken(
	_ context.Context,
	userID, oldHash, newHash string,
	expiresAt, now time.Time,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.refreshHash != oldHash || !u.refreshExp.After(now) {
		return false, nil
	}
	u.refreshHash = newHash
	u.refreshExp = expiresAt
	return true, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	issued   map[string]int
	failures map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		issued:   make(map[string]int),
		failures: make(map[string]int),
	}
}

func (m *recordingMetrics) TokenIssued(flow string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued[flow]++
}

func (m *recordingMetrics) TokenFailure(flow, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[flow+"/"+reason]++
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	clock   *fakeClock
	signer  *Signer
	metrics *recordingMetrics
}

const (
	adminID = "11111111-1111-1111-1111-111111111111"
	johnID  = "22222222-2222-2222-2222-222222222222"
	adminRole = "aaaaaaaa-0000-0000-0000-000000000001"
	basicRole = "aaaaaaaa-0000-0000-0000-000000000002"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	store := newFakeStore()

	phone := "+15550100"
	store.addUser(t, UserInfo{
		ID:             adminID,
		UserName:       "admin",
		FirstName:      "System",
		LastName:       "Admin",
		Email:          "admin@identity.local",
		PhoneNumber:    &phone,
		IsActive:       true,
		EmailConfirmed: true,
	})
	store.addUser(t, UserInfo{
		ID:             johnID,
		UserName:       "john.doe",
		FirstName:      "John",
		LastName:       "Doe",
		Email:          "john.doe@email.com",
		IsActive:       true,
		EmailConfirmed: true,
	})

	store.addRole(adminRole, "Admin", permission.Names(permission.Admin())...)
	store.addRole(basicRole, "Basic")
	store.assign(adminID, adminRole, basicRole)
	store.assign(johnID, basicRole)

	signer, err := NewSigner(testTokenConfig())
	require.NoError(t, err)
	signer.now = clock.Now

	rec := newRecordingMetrics()
	svc := NewService(ServiceConfig{
		Repository:   store,
		UserProvider: store,
		Signer:       signer,
		Token:        testTokenConfig(),
		Metrics:      rec,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	svc.now = clock.Now

	return &fixture{
		svc:     svc,
		store:   store,
		clock:   clock,
		signer:  signer,
		metrics: rec,
	}
}

func (f *fixture) claimsOf(t *testing.T, token string) *claims.Set {
	t.Helper()
	v, err := f.signer.Verify(token, VerifyOptions{IgnoreLifetime: true})
	require.NoError(t, err)
	return v.Claims
}

func TestLoginIssuesExactClaimUnion(t *testing.T) {
	f := newFixture(t)
	f.store.addRole("aaaaaaaa-0000-0000-0000-000000000003", "Auditor",
		permission.UsersRead, permission.RolesRead)
	f.store.grant(basicRole, permission.UsersRead)
	f.store.assign(johnID, "aaaaaaaa-0000-0000-0000-000000000003")
	f.store.userClaims[johnID] = []claims.Claim{
		claims.New("Department", "Finance"),
		claims.Permission(permission.RolesRead),
	}

	pair, err := f.svc.Login(context.Background(), "john.doe", testPassword)
	require.NoError(t, err)

	want := claims.NewSet(
		claims.New(claims.TypeNameIdentifier, johnID),
		claims.New(claims.TypeName, "John"),
		claims.New(claims.TypeSurname, "Doe"),
		claims.New(claims.TypeEmail, "john.doe@email.com"),
		claims.New(claims.TypeMobilePhone, ""),
		claims.Role("Basic"),
		claims.Permission(permission.UsersRead),
		claims.Role("Auditor"),
		claims.Permission(permission.RolesRead),
		claims.New("Department", "Finance"),
	)

	got := f.claimsOf(t, pair.AccessToken)
	assert.True(t, want.Equal(got), "got %v", got.All())
	assert.Equal(t, 10, got.Len())

	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), pair.RefreshTokenExpiry)

	hash, exp := f.store.slot(johnID)
	assert.Equal(t, core.HashToken(pair.RefreshToken), hash)
	assert.Equal(t, pair.RefreshTokenExpiry, exp)
	assert.Equal(t, 1, f.metrics.issued["login"])
}

func TestLoginWithoutRolesEmitsIdentityOnly(t *testing.T) {
	f := newFixture(t)
	f.store.addUser(t, UserInfo{
		ID:             "33333333-3333-3333-3333-333333333333",
		UserName:       "loner",
		FirstName:      "No",
		LastName:       "Roles",
		Email:          "loner@email.com",
		IsActive:       true,
		EmailConfirmed: true,
	})

	pair, err := f.svc.Login(context.Background(), "loner", testPassword)
	require.NoError(t, err)

	got := f.claimsOf(t, pair.AccessToken)
	assert.Equal(t, []string{
		claims.TypeNameIdentifier,
		claims.TypeName,
		claims.TypeSurname,
		claims.TypeEmail,
		claims.TypeMobilePhone,
	}, got.Types())
	assert.Empty(t, got.Values(claims.TypeRole))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)

	f.store.addUser(t, UserInfo{
		ID:             "44444444-4444-4444-4444-444444444444",
		UserName:       "inactive",
		Email:          "inactive@email.com",
		IsActive:       false,
		EmailConfirmed: true,
	})
	f.store.addUser(t, UserInfo{
		ID:             "55555555-5555-5555-5555-555555555555",
		UserName:       "unconfirmed",
		Email:          "unconfirmed@email.com",
		IsActive:       true,
		EmailConfirmed: false,
	})

	tests := []struct {
		name     string
		userName string
		password string
		want     error
	}{
		{"unknown user", "ghost", testPassword, ErrInvalidCredentials},
		{"wrong password", "john.doe", "wrong", ErrInvalidCredentials},
		{"inactive wrong password", "inactive", "wrong", ErrInvalidCredentials},
		{"inactive", "inactive", testPassword, ErrInactiveAccount},
		{"unconfirmed wrong password", "unconfirmed", "wrong", ErrInvalidCredentials},
		{"unconfirmed", "unconfirmed", testPassword, ErrEmailNotConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := f.svc.Login(context.Background(), tt.userName, tt.password)
			assert.Nil(t, pair)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	hash, _ := f.store.slot("44444444-4444-4444-4444-444444444444")
	assert.Empty(t, hash)
	assert.Equal(t, 0, f.metrics.issued["login"])
	assert.Equal(t, 4, f.metrics.failures["login/invalid_credentials"])
}

func TestSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	second, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.AccessToken, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, second.AccessToken, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshAcceptsExpiredAccessTokenAndRotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	_, err = f.signer.Verify(pair.AccessToken, VerifyOptions{})
	require.ErrorIs(t, err, core.ErrTokenExpired)

	next, err := f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = f.signer.Verify(next.AccessToken, VerifyOptions{})
	assert.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, next.AccessToken, next.RefreshToken)
	assert.NoError(t, err)

	assert.Equal(t, 2, f.metrics.issued["refresh"])
}

func TestRefreshRejectsMutatedRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	for i := range len(pair.RefreshToken) {
		mutated := []byte(pair.RefreshToken)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		_, err := f.svc.Refresh(ctx, pair.AccessToken, string(mutated))
		require.ErrorIs(t, err, ErrInvalidRefreshToken, "position %d", i)
	}

	_, err = f.svc.Refresh(ctx, pair.AccessToken, "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsExpiredRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	f.clock.Advance(7 * 24 * time.Hour)

	_, err = f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRejectsInvalidAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken+"x", pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = f.svc.Refresh(ctx, "garbage", pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	hash, _ := f.store.slot(johnID)
	assert.Equal(t, core.HashToken(pair.RefreshToken), hash)
}

func TestRefreshUnknownUser(t *testing.T) {
	f := newFixture(t)

	token, err := f.signer.Sign(
		claims.NewSet(claims.New(claims.TypeEmail, "nobody@email.com")),
		f.clock.Now().Add(time.Hour),
	)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token, "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshWithoutEmailClaim(t *testing.T) {
	f := newFixture(t)

	token, err := f.signer.Sign(
		claims.NewSet(claims.Role("Admin")),
		f.clock.Now().Add(time.Hour),
	)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token, "whatever")
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestConcurrentRefreshExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	const callers = 16

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, callers)
		winners = make([]*TokenPair, callers)
	)

	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			winners[i], results[i] = f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	var won *TokenPair
	successes := 0
	for i, err := range results {
		if err == nil {
			successes++
			won = winners[i]
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	}
	require.Equal(t, 1, successes)

	_, err = f.svc.Refresh(ctx, won.AccessToken, won.RefreshToken)
	assert.NoError(t, err)
}

func TestClaimsAreSnapshotAtIssuance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authorizer := authz.NewAuthorizer(nil)

	stale, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	err = authorizer.Authorize(f.claimsOf(t, stale.AccessToken), permission.UsersCreate)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	f.store.grant(basicRole, permission.UsersCreate)

	err = authorizer.Authorize(f.claimsOf(t, stale.AccessToken), permission.UsersCreate)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	fresh, err := f.svc.Login(ctx, "john.doe", testPassword)
	require.NoError(t, err)

	err = authorizer.Authorize(f.claimsOf(t, fresh.AccessToken), permission.UsersCreate)
	assert.NoError(t, err)

	err = authorizer.Authorize(f.claimsOf(t, stale.AccessToken), permission.UsersCreate)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestAdminLoginCarriesEveryPermission(t *testing.T) {
	f := newFixture(t)

	pair, err := f.svc.Login(context.Background(), "admin", testPassword)
	require.NoError(t, err)

	got := f.claimsOf(t, pair.AccessToken)
	assert.ElementsMatch(t, []string{"Admin", "Basic"}, got.Values(claims.TypeRole))
	assert.ElementsMatch(
		t,
		permission.Names(permission.Admin()),
		got.Values(claims.TypePermission),
	)

	phone, _ := got.First(claims.TypeMobilePhone)
	assert.Equal(t, "+15550100", phone)
}

func TestLoginPropagatesClaimSourceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.roleErr = errors.New("connection reset")

	_, err := f.svc.Login(context.Background(), "john.doe", testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, f.metrics.failures["login/error"])
}

func TestLoginSkipsClaimsWithReservedTypes(t *testing.T) {
	f := newFixture(t)
	f.store.userClaims[johnID] = []claims.Claim{
		claims.New("exp", "never"),
		claims.New("Department", "Finance"),
	}
	f.store.roleClaims[basicRole] = append(f.store.roleClaims[basicRole],
		claims.New("sub", "someone-else"))

	pair, err := f.svc.Login(context.Background(), "john.doe", testPassword)
	require.NoError(t, err)

	got := f.claimsOf(t, pair.AccessToken)
	dept, ok := got.First("Department")
	require.True(t, ok)
	assert.Equal(t, "Finance", dept)

	v, err := f.signer.Verify(pair.AccessToken, VerifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, johnID, v.Subject)
}

func TestFailedLoginKeepsStoredRefreshToken(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Login(context.Background(), "john.doe", testPassword)
	require.NoError(t, err)
	hashBefore, expBefore := f.store.slot(johnID)

	f.store.roleErr = errors.New("connection reset")
	_, err = f.svc.Login(context.Background(), "john.doe", testPassword)
	require.Error(t, err)

	hashAfter, expAfter := f.store.slot(johnID)
	assert.Equal(t, hashBefore, hashAfter)
	assert.Equal(t, expBefore, expAfter)

	f.store.roleErr = nil
	_, err = f.svc.Refresh(context.Background(), first.AccessToken, first.RefreshToken)
	assert.NoError(t, err)
}

func TestFailedRefreshKeepsStoredRefreshToken(t *testing.T) {
	f := newFixture(t)

	pair, err := f.svc.Login(context.Background(), "john.doe", testPassword)
	require.NoError(t, err)
	hashBefore, _ := f.store.slot(johnID)

	f.store.roleErr = errors.New("connection reset")
	_, err = f.svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.Error(t, err)

	hashAfter, _ := f.store.slot(johnID)
	assert.Equal(t, hashBefore, hashAfter)
	assert.Equal(t, 1, f.metrics.failures["refresh/error"])

	f.store.roleErr = nil
	_, err = f.svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	assert.NoError(t, err)
}
