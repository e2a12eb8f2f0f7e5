package cache

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/user-directory/internal/model"
)

const resetCodePrefix = "password_reset_code_"

// TakeStore is a Store that can read and delete a key atomically.
type TakeStore interface {
	Store
	Take(ctx context.Context, key string) ([]byte, bool, error)
}

// ResetCodes holds one-time password reset codes. A code is consumed by the
// first verification attempt, matching or not.
type ResetCodes struct {
	store TakeStore
}

func NewResetCodes(store TakeStore) *ResetCodes {
	return &ResetCodes{store: store}
}

// Store saves code for userName, replacing any earlier one.
func (r *ResetCodes) Store(ctx context.Context, userName, code string, ttl time.Duration) error {
	if code == "" {
		return errors.New("empty reset code")
	}
	if err := r.store.Set(ctx, resetCodePrefix+userName, []byte(code), ttl); err != nil {
		return fmt.Errorf("%w: store reset code: %v", model.ErrCache, err)
	}
	return nil
}

// Verify consumes the stored code for userName and reports whether it
// equals code.
func (r *ResetCodes) Verify(ctx context.Context, userName, code string) (bool, error) {
	stored, ok, err := r.store.Take(ctx, resetCodePrefix+userName)
	if err != nil {
		return false, fmt.Errorf("%w: consume reset code: %v", model.ErrCache, err)
	}
	if !ok || code == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare(stored, []byte(code)) == 1, nil
}
