package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/queue"
)

func TestUserService_ReadThroughCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.io", "5550001")

	p, err := f.users.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", p.Email)
	assert.True(t, f.mr.Exists(cache.UserNameKey("alice")))

	p, err = f.users.ByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserName)
	assert.True(t, f.mr.Exists(cache.EmailKey("a@x.io")))

	_, err = f.users.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.False(t, f.mr.Exists(cache.UserNameKey("ghost")))
}

// After any profile-visible write returns, neither cache key may serve the
// old value.
func TestUserService_NoStaleReadsAfterWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.io", "5550001")

	warm := func() {
		_, err := f.users.Profile(ctx, "alice")
		require.NoError(t, err)
		_, err = f.users.ByEmail(ctx, "a@x.io")
		require.NoError(t, err)
	}
	both := func() (model.UserProfile, model.UserProfile) {
		a, err := f.users.Profile(ctx, "alice")
		require.NoError(t, err)
		b, err := f.users.ByEmail(ctx, "a@x.io")
		require.NoError(t, err)
		return a, b
	}

	warm()
	_, err := f.users.UpdateProfile(ctx, "alice", model.ProfileChanges{FullName: strPtr("Alice Updated")})
	require.NoError(t, err)
	a, b := both()
	assert.Equal(t, "Alice Updated", a.FullName)
	assert.Equal(t, "Alice Updated", b.FullName)

	_, err = f.users.UpdateRole(ctx, "alice", "ADMIN", "root")
	require.NoError(t, err)
	a, b = both()
	assert.Equal(t, "ADMIN", a.Role)
	assert.Equal(t, "ADMIN", b.Role)
	assert.Equal(t, "root", a.UpdatedBy)

	p, err := f.users.UpdateStatus(ctx, "alice", "root")
	require.NoError(t, err)
	assert.False(t, p.Active)
	a, b = both()
	assert.False(t, a.Active)
	assert.False(t, b.Active)

	assert.Equal(t, []queue.EventType{
		queue.EventRegistered, queue.EventProfileUpdated, queue.EventRoleChanged, queue.EventStatusChanged,
	}, f.events.types())
}

func TestUserService_DeleteDropsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.io", "5550001")
	_, err := f.users.Profile(ctx, "alice")
	require.NoError(t, err)
	_, err = f.users.ByEmail(ctx, "a@x.io")
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, "alice", "root"))
	assert.False(t, f.mr.Exists(cache.UserNameKey("alice")))
	assert.False(t, f.mr.Exists(cache.EmailKey("a@x.io")))

	_, err = f.users.Profile(ctx, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, "alice", "root"), model.ErrNotFound)
}

func TestUserService_ByRoleAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.io", "1")
	f.register(t, "bob", "b@x.io", "2")

	list, err := f.users.ByRole(ctx, "USER")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.users.ByRole(ctx, "ADMIN")
	assert.ErrorIs(t, err, model.ErrNotFound)

	list, err = f.users.Search(ctx, SearchFilter{Email: strPtr("b@x.io")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].UserName)

	list, err = f.users.Search(ctx, SearchFilter{Email: strPtr("zzz@x.io")})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserService_WriteWithCacheDownStillCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.io", "5550001")
	f.mr.Close()

	_, err := f.users.UpdateProfile(ctx, "alice", model.ProfileChanges{FullName: strPtr("Offline")})
	assert.ErrorIs(t, err, model.ErrCache)

	u, err := f.dir.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Offline", u.FullName)
}
