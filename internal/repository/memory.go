package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/user-directory/internal/model"
)

// MemoryDB is a process-local store holding users and addresses behind one
// lock. It enforces the same unique keys as the MySQL schema and cascades
// user deletes to addresses. Used with STORE_DRIVER=memory and in tests.
type MemoryDB struct {
	mu        sync.RWMutex
	nextUser  uint64
	nextAddr  uint64
	users     map[string]model.User // keyed by user name
	addresses map[uint64]model.Address
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:     map[string]model.User{},
		addresses: map[uint64]model.Address{},
	}
}

// Users returns the user store view of db.
func (db *MemoryDB) Users() *MemoryUserRepo { return &MemoryUserRepo{db: db} }

// Addresses returns the address store view of db.
func (db *MemoryDB) Addresses() *MemoryAddressRepo { return &MemoryAddressRepo{db: db} }

// MemoryUserRepo implements the user store on a MemoryDB.
type MemoryUserRepo struct{ db *MemoryDB }

func (r *MemoryUserRepo) FindConflict(_ context.Context, email, mobile, userName string) (model.User, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.sortedUsers() {
		if u.Email == email || u.MobileNumber == mobile || u.UserName == userName {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}

func (r *MemoryUserRepo) Insert(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.collides(*u, "") {
		return fmt.Errorf("insert user: %w", model.ErrAlreadyExists)
	}
	r.db.nextUser++
	u.ID = r.db.nextUser
	r.db.users[u.UserName] = *u
	return nil
}

func (r *MemoryUserRepo) FindOne(_ context.Context, p UserPredicate) (model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.sortedUsers() {
		if p.Matches(u) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user: %w", model.ErrNotFound)
}

func (r *MemoryUserRepo) Find(_ context.Context, p UserPredicate) ([]model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []model.User{}
	for _, u := range r.db.sortedUsers() {
		if p.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemoryUserRepo) Update(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.users[u.UserName]
	if !ok {
		return fmt.Errorf("update user %q: %w", u.UserName, model.ErrNotFound)
	}
	if r.db.collides(*u, u.UserName) {
		return fmt.Errorf("update user: %w", model.ErrAlreadyExists)
	}
	next := *u
	next.ID = cur.ID
	next.CreatedOn, next.CreatedBy = cur.CreatedOn, cur.CreatedBy
	r.db.users[u.UserName] = next
	return nil
}

func (r *MemoryUserRepo) DeleteByUserName(_ context.Context, userName string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[userName]; !ok {
		return fmt.Errorf("delete user %q: %w", userName, model.ErrNotFound)
	}
	delete(r.db.users, userName)
	for id, a := range r.db.addresses {
		if a.UserName == userName {
			delete(r.db.addresses, id)
		}
	}
	return nil
}

// collides reports whether u shares a unique key with any user other than
// self. Caller holds the lock.
func (db *MemoryDB) collides(u model.User, self string) bool {
	for name, other := range db.users {
		if name == self {
			continue
		}
		if other.UserName == u.UserName || other.Email == u.Email || other.MobileNumber == u.MobileNumber {
			return true
		}
	}
	return false
}

// sortedUsers returns users ordered by id. Caller holds the lock.
func (db *MemoryDB) sortedUsers() []model.User {
	out := make([]model.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MemoryAddressRepo implements the address store on a MemoryDB.
type MemoryAddressRepo struct{ db *MemoryDB }

func (r *MemoryAddressRepo) ListByUserName(_ context.Context, userName string) ([]model.Address, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []model.Address{}
	for _, a := range r.db.addresses {
		if a.UserName == userName {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryAddressRepo) CountByUserName(ctx context.Context, userName string) (int, error) {
	list, err := r.ListByUserName(ctx, userName)
	return len(list), err
}

func (r *MemoryAddressRepo) Insert(_ context.Context, a *model.Address) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[a.UserName]; !ok {
		// mirrors the foreign key on address.user_name
		return fmt.Errorf("insert address: user %q: %w", a.UserName, model.ErrNotFound)
	}
	r.db.nextAddr++
	a.ID = r.db.nextAddr
	r.db.addresses[a.ID] = *a
	return nil
}

func (r *MemoryAddressRepo) GetByIDAndUser(_ context.Context, id uint64, userName string) (model.Address, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.addresses[id]
	if !ok || a.UserName != userName {
		return model.Address{}, fmt.Errorf("address %d: %w", id, model.ErrNotFound)
	}
	return a, nil
}

func (r *MemoryAddressRepo) Update(_ context.Context, a *model.Address) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.addresses[a.ID]
	if !ok || cur.UserName != a.UserName {
		return fmt.Errorf("update address %d: %w", a.ID, model.ErrNotFound)
	}
	next := *a
	next.CreatedOn, next.CreatedBy = cur.CreatedOn, cur.CreatedBy
	r.db.addresses[a.ID] = next
	return nil
}

func (r *MemoryAddressRepo) DeleteByIDs(_ context.Context, userName string, ids []uint64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if a, ok := r.db.addresses[id]; ok && a.UserName == userName {
			delete(r.db.addresses, id)
			n++
		}
	}
	return n, nil
}
