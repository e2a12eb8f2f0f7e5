// Package service holds the business operations of the user directory:
// the UserDirectory over the record store, authentication, profile reads
// and writes fronted by the profile cache, and the address book.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/queue"
	"github.com/iliyamo/user-directory/internal/repository"
	"github.com/iliyamo/user-directory/internal/utils"
)

// UserStore is the persistence the directory needs. repository.UserRepo and
// repository.MemoryUserRepo implement it.
type UserStore interface {
	FindConflict(ctx context.Context, email, mobile, userName string) (model.User, bool, error)
	Insert(ctx context.Context, u *model.User) error
	FindOne(ctx context.Context, p repository.UserPredicate) (model.User, error)
	Find(ctx context.Context, p repository.UserPredicate) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	DeleteByUserName(ctx context.Context, userName string) error
}

// AddressStore is the persistence the address book needs.
type AddressStore interface {
	ListByUserName(ctx context.Context, userName string) ([]model.Address, error)
	CountByUserName(ctx context.Context, userName string) (int, error)
	Insert(ctx context.Context, a *model.Address) error
	GetByIDAndUser(ctx context.Context, id uint64, userName string) (model.Address, error)
	Update(ctx context.Context, a *model.Address) error
	DeleteByIDs(ctx context.Context, userName string, ids []uint64) (int64, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(subject, role string, now time.Time) (utils.AccessToken, error)
}

// ResetCodeVerifier gates FORGOT password resets on a one-time code.
type ResetCodeVerifier interface {
	Store(ctx context.Context, userName, code string, ttl time.Duration) error
	Verify(ctx context.Context, userName, code string) (bool, error)
}

// EventPublisher delivers user lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.UserEvent) error
}
