package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/repository"
)

// SearchFilter holds the optional filters of a user search. Absent (nil)
// filters are ignored; present ones are combined with AND.
type SearchFilter struct {
	Email  *string
	Role   *string
	Active *bool
}

// Predicate folds the present filters into a single conjunction.
func (f SearchFilter) Predicate() repository.UserPredicate {
	p := repository.AllUsers()
	if f.Email != nil {
		p = p.And(repository.EmailIs(*f.Email))
	}
	if f.Role != nil {
		p = p.And(repository.RoleIs(*f.Role))
	}
	if f.Active != nil {
		p = p.And(repository.ActiveIs(*f.Active))
	}
	return p
}

// Directory is the user directory: lookups, uniqueness checks and the
// mutations of user records. It does not touch the cache.
type Directory struct {
	store UserStore
	opts  options
}

func NewDirectory(store UserStore, opts ...Option) *Directory {
	return &Directory{store: store, opts: buildOptions(opts)}
}

// Create persists u after checking, in one disjunctive lookup, that no user
// shares its email, mobile number or user name. The store's unique keys
// still back the check against concurrent registrations.
func (d *Directory) Create(ctx context.Context, u *model.User) error {
	existing, found, err := d.store.FindConflict(ctx, u.Email, u.MobileNumber, u.UserName)
	if err != nil {
		return fmt.Errorf("error checking for duplicates: %w", err)
	}
	if found {
		return fmt.Errorf("user %q conflicts with %q: %w", u.UserName, existing.UserName, model.ErrAlreadyExists)
	}
	if err := d.store.Insert(ctx, u); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

func (d *Directory) FindByUserName(ctx context.Context, userName string) (model.User, error) {
	return d.store.FindOne(ctx, repository.Where(repository.UserNameIs(userName)))
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return d.store.FindOne(ctx, repository.Where(repository.EmailIs(email)))
}

func (d *Directory) FindByMobileNumber(ctx context.Context, mobile string) (model.User, error) {
	return d.store.FindOne(ctx, repository.Where(repository.MobileIs(mobile)))
}

// FindActiveByUserName returns model.ErrNotFound for inactive users as well
// as unknown ones.
func (d *Directory) FindActiveByUserName(ctx context.Context, userName string) (model.User, error) {
	return d.store.FindOne(ctx, repository.Where(repository.UserNameIs(userName), repository.ActiveIs(true)))
}

// FindByRole lists the users holding role. An empty result is not an error
// here.
func (d *Directory) FindByRole(ctx context.Context, role string) ([]model.User, error) {
	return d.store.Find(ctx, repository.Where(repository.RoleIs(role)))
}

// Search returns every user matching all present filters.
func (d *Directory) Search(ctx context.Context, f SearchFilter) ([]model.User, error) {
	return d.store.Find(ctx, f.Predicate())
}

// UpdateRole sets the role and stamps the audit fields with actor.
func (d *Directory) UpdateRole(ctx context.Context, userName, role, actor string) (model.User, error) {
	return d.mutate(ctx, d.FindByUserName, userName, actor, func(u *model.User) error {
		u.Role = role
		return nil
	})
}

// ToggleStatus flips the active flag.
func (d *Directory) ToggleStatus(ctx context.Context, userName, actor string) (model.User, error) {
	return d.mutate(ctx, d.FindByUserName, userName, actor, func(u *model.User) error {
		u.Active = !u.Active
		return nil
	})
}

// UpdateProfile applies the present fields of ch to an active user. A new
// mobile number must not belong to anyone else.
func (d *Directory) UpdateProfile(ctx context.Context, userName string, ch model.ProfileChanges) (model.User, error) {
	return d.mutate(ctx, d.FindActiveByUserName, userName, userName, func(u *model.User) error {
		if ch.MobileNumber != nil && *ch.MobileNumber != u.MobileNumber {
			other, err := d.FindByMobileNumber(ctx, *ch.MobileNumber)
			switch {
			case err == nil:
				return fmt.Errorf("mobile number held by %q: %w", other.UserName, model.ErrAlreadyExists)
			case !errors.Is(err, model.ErrNotFound):
				return err
			}
		}
		ch.ApplyTo(u)
		return nil
	})
}

// SetPassword replaces the stored hash.
func (d *Directory) SetPassword(ctx context.Context, userName, hash, actor string) (model.User, error) {
	return d.mutate(ctx, d.FindByUserName, userName, actor, func(u *model.User) error {
		u.PasswordHash = hash
		return nil
	})
}

// Delete hard-deletes the user and returns the record as it was.
func (d *Directory) Delete(ctx context.Context, userName string) (model.User, error) {
	u, err := d.FindByUserName(ctx, userName)
	if err != nil {
		return model.User{}, err
	}
	if err := d.store.DeleteByUserName(ctx, userName); err != nil {
		return model.User{}, fmt.Errorf("error deleting user: %w", err)
	}
	return u, nil
}

// mutate loads a user, applies change, stamps updatedOn/updatedBy and
// writes the record back.
func (d *Directory) mutate(ctx context.Context, load func(context.Context, string) (model.User, error),
	userName, actor string, change func(*model.User) error) (model.User, error) {
	u, err := load(ctx, userName)
	if err != nil {
		return model.User{}, err
	}
	if err := change(&u); err != nil {
		return model.User{}, err
	}
	u.UpdatedOn = d.opts.now()
	u.UpdatedBy = actor
	if err := d.store.Update(ctx, &u); err != nil {
		return model.User{}, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}
