package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/queue"
)

// UserServiceArgs contains the mandatory arguments for the UserService.
type UserServiceArgs struct {
	Directory *Directory
	Cache     *cache.ProfileCache
}

// UserService serves profile reads through the profile cache and keeps the
// cache coherent with every profile write: by the time a mutation returns,
// both the user-name and the email entry hold the new profile or are gone.
type UserService struct {
	dir   *Directory
	cache *cache.ProfileCache
	opts  options
}

func NewUserService(args UserServiceArgs, opts ...Option) *UserService {
	return &UserService{dir: args.Directory, cache: args.Cache, opts: buildOptions(opts)}
}

// Profile returns the profile of userName, read through the cache.
func (s *UserService) Profile(ctx context.Context, userName string) (model.UserProfile, error) {
	return cache.ReadThrough(ctx, s.cache, cache.UserNameKey(userName), func(ctx context.Context) (model.UserProfile, error) {
		u, err := s.dir.FindByUserName(ctx, userName)
		if err != nil {
			return model.UserProfile{}, err
		}
		return u.Profile(), nil
	})
}

// ByEmail returns the profile registered under email, read through the cache.
func (s *UserService) ByEmail(ctx context.Context, email string) (model.UserProfile, error) {
	return cache.ReadThrough(ctx, s.cache, cache.EmailKey(email), func(ctx context.Context) (model.UserProfile, error) {
		u, err := s.dir.FindByEmail(ctx, email)
		if err != nil {
			return model.UserProfile{}, err
		}
		return u.Profile(), nil
	})
}

// ByRole lists the profiles holding role. No match is model.ErrNotFound.
func (s *UserService) ByRole(ctx context.Context, role string) ([]model.UserProfile, error) {
	users, err := s.dir.FindByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users with role %q: %w", role, model.ErrNotFound)
	}
	return model.Profiles(users), nil
}

// Search lists the profiles matching every present filter.
func (s *UserService) Search(ctx context.Context, f SearchFilter) ([]model.UserProfile, error) {
	users, err := s.dir.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return model.Profiles(users), nil
}

// UpdateProfile edits the caller's own active profile.
func (s *UserService) UpdateProfile(ctx context.Context, userName string, ch model.ProfileChanges) (model.UserProfile, error) {
	u, err := s.dir.UpdateProfile(ctx, userName, ch)
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.afterWrite(ctx, u, queue.EventProfileUpdated, userName, "")
}

// UpdateStatus toggles the active flag of userName.
func (s *UserService) UpdateStatus(ctx context.Context, userName, actor string) (model.UserProfile, error) {
	u, err := s.dir.ToggleStatus(ctx, userName, actor)
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.afterWrite(ctx, u, queue.EventStatusChanged, actor, fmt.Sprintf("active=%t", u.Active))
}

// UpdateRole assigns role to userName.
func (s *UserService) UpdateRole(ctx context.Context, userName, role, actor string) (model.UserProfile, error) {
	u, err := s.dir.UpdateRole(ctx, userName, role, actor)
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.afterWrite(ctx, u, queue.EventRoleChanged, actor, role)
}

// Delete hard-deletes userName and drops its cache entries.
func (s *UserService) Delete(ctx context.Context, userName, actor string) error {
	u, err := s.dir.Delete(ctx, userName)
	if err != nil {
		return err
	}
	if err := s.cache.ForgetProfile(ctx, u.UserName, u.Email); err != nil {
		s.opts.log.WithError(err).WithField("user", u.UserName).Error("profile cache not cleared after delete")
		return err
	}
	s.opts.log.WithField("user", u.UserName).WithField("actor", actor).Info("user deleted")
	s.opts.emit(ctx, queue.EventDeleted, u.UserName, actor, "")
	return nil
}

// afterWrite refreshes both cache entries of u and publishes the event.
// The store write has committed; a cache failure is still reported so the
// caller knows an entry may be stale.
func (s *UserService) afterWrite(ctx context.Context, u model.User, t queue.EventType, actor, detail string) (model.UserProfile, error) {
	p := u.Profile()
	if err := s.cache.RefreshProfile(ctx, p); err != nil {
		s.opts.log.WithError(err).WithField("user", u.UserName).Error("profile cache not refreshed after write")
		return p, err
	}
	s.opts.emit(ctx, t, u.UserName, actor, detail)
	return p, nil
}
