package ban_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/store/memory"
)

type banFixture struct {
	store *memory.Store
	rbac  *rbac.Service
	svc   *ban.Service
	now   time.Time
}

func newBanFixture(t *testing.T) *banFixture {
	t.Helper()
	store := memory.New()
	resolver, err := rbac.NewService(store.Permissions(), store.Roles(), store.Users())
	require.NoError(t, err)
	require.NoError(t, resolver.Seed(context.Background()))

	f := &banFixture{
		store: store,
		rbac:  resolver,
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := ban.NewService(store.Bans(), store.Users(), resolver,
		ban.WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *banFixture) createUser(t *testing.T, email string, roleTitles ...string) *rbac.User {
	t.Helper()
	ctx := context.Background()
	user := &rbac.User{Email: email}
	require.NoError(t, f.store.Users().Create(ctx, user))

	views, err := f.rbac.GetAllRoles(ctx)
	require.NoError(t, err)
	for _, title := range roleTitles {
		for _, v := range views {
			if v.Title == title {
				require.NoError(t, f.rbac.AssignRole(ctx, user.ID, v.ID))
				user.Roles = append(user.Roles, v.ID)
			}
		}
	}
	return user
}

func TestIssueBan(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "target@example.com", rbac.RoleUser)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	b, err := f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{
		BanDuration: "1h",
		Description: "spamming",
	})
	require.NoError(t, err)
	assert.Equal(t, ban.TypeBan, b.BanType)
	assert.Equal(t, f.now, b.BanStart)
	assert.Equal(t, f.now.Add(time.Hour), b.BanExpire)
	assert.True(t, b.Active(f.now))

	// the ban is appended to the user's ban list
	stored, err := f.rbac.GetUser(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, stored.BanList)

	banned, err := f.svc.IsBanned(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestIssueBanSuperAdminImmune(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "root@example.com", rbac.RoleSuperAdmin)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	_, err := f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "1h"})
	assert.ErrorIs(t, err, ban.ErrSuperAdminImmune)
}

func TestIssueBanValidation(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "target@example.com", rbac.RoleUser)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	_, err := f.svc.Issue(ctx, "bad-id", issuer.ID, ban.IssueRequest{BanDuration: "1h"})
	assert.ErrorIs(t, err, rbac.ErrInvalidID)

	_, err = f.svc.Issue(ctx, "64f000000000000000000001", issuer.ID, ban.IssueRequest{BanDuration: "1h"})
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	_, err = f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "soon"})
	assert.ErrorIs(t, err, ban.ErrBadDuration)
}

func TestBanExpiresWithTheClock(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "target@example.com", rbac.RoleUser)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	_, err := f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "1m"})
	require.NoError(t, err)

	banned, err := f.svc.IsBanned(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, banned)

	// 61 seconds later the one-minute ban no longer restricts the user
	f.now = f.now.Add(61 * time.Second)
	banned, err = f.svc.IsBanned(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestLiftBan(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "target@example.com", rbac.RoleUser)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	b, err := f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "30d"})
	require.NoError(t, err)

	lifted, err := f.svc.Lift(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, lifted.Lifted)

	banned, err := f.svc.IsBanned(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, banned)

	// lifting again is a no-op
	again, err := f.svc.Lift(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, again.Lifted)

	_, err = f.svc.Lift(ctx, "64f000000000000000000001")
	assert.ErrorIs(t, err, ban.ErrNotFound)
}

func TestListForUser(t *testing.T) {
	f := newBanFixture(t)
	ctx := context.Background()

	target := f.createUser(t, "target@example.com", rbac.RoleUser)
	issuer := f.createUser(t, "admin@example.com", rbac.RoleAdmin)

	_, err := f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "1h"})
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, target.ID, issuer.ID, ban.IssueRequest{BanDuration: "2h"})
	require.NoError(t, err)

	bans, err := f.svc.ListForUser(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, bans, 2)

	_, err = f.svc.ListForUser(ctx, "nope")
	assert.ErrorIs(t, err, rbac.ErrInvalidID)
}
