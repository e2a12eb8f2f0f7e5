package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/queue"
)

// AddressServiceArgs contains the mandatory arguments for the AddressService.
type AddressServiceArgs struct {
	Directory *Directory
	Addresses AddressStore
}

// AddressService manages a user's address book.
type AddressService struct {
	dir   *Directory
	store AddressStore
	opts  options
}

func NewAddressService(args AddressServiceArgs, opts ...Option) *AddressService {
	return &AddressService{dir: args.Directory, store: args.Addresses, opts: buildOptions(opts)}
}

// List returns the user's addresses. An empty book is model.ErrNotFound.
func (s *AddressService) List(ctx context.Context, userName string) ([]model.Address, error) {
	list, err := s.store.ListByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no addresses for %q: %w", userName, model.ErrNotFound)
	}
	return list, nil
}

// Add stores a new address for an existing user, up to
// model.MaxAddressesPerUser.
func (s *AddressService) Add(ctx context.Context, userName string, a model.Address) (model.Address, error) {
	if _, err := s.dir.FindByUserName(ctx, userName); err != nil {
		return model.Address{}, err
	}
	n, err := s.store.CountByUserName(ctx, userName)
	if err != nil {
		return model.Address{}, err
	}
	if n >= model.MaxAddressesPerUser {
		return model.Address{}, fmt.Errorf("user %q already has %d addresses: %w", userName, n, model.ErrLimitExceeded)
	}

	a.ID = 0
	a.UserName = userName
	a.CreatedOn = s.opts.now()
	a.CreatedBy = userName
	a.UpdatedOn, a.UpdatedBy = time.Time{}, ""
	if err := s.store.Insert(ctx, &a); err != nil {
		return model.Address{}, fmt.Errorf("error saving address: %w", err)
	}
	s.opts.emit(ctx, queue.EventAddressesChange, userName, userName, fmt.Sprintf("added=%d", a.ID))
	return a, nil
}

// Update applies the present fields of ch to one of the user's addresses.
// Addresses owned by someone else are reported as model.ErrNotFound.
func (s *AddressService) Update(ctx context.Context, userName string, id uint64, ch model.AddressChanges) (model.Address, error) {
	a, err := s.store.GetByIDAndUser(ctx, id, userName)
	if err != nil {
		return model.Address{}, err
	}
	ch.ApplyTo(&a)
	a.UpdatedOn = s.opts.now()
	a.UpdatedBy = userName
	if err := s.store.Update(ctx, &a); err != nil {
		return model.Address{}, fmt.Errorf("error updating address: %w", err)
	}
	s.opts.emit(ctx, queue.EventAddressesChange, userName, userName, fmt.Sprintf("updated=%d", a.ID))
	return a, nil
}

// Delete removes the listed addresses of the user and returns how many
// were removed. Unknown ids are ignored.
func (s *AddressService) Delete(ctx context.Context, userName string, ids []uint64) (int64, error) {
	n, err := s.store.DeleteByIDs(ctx, userName, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.opts.emit(ctx, queue.EventAddressesChange, userName, userName, fmt.Sprintf("deleted=%d", n))
	}
	return n, nil
}
