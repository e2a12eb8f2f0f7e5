package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/user-directory/internal/model"
)

const userColumns = `id, user_name, email, mobile_number, password_hash, full_name, role, is_active,
	created_on, created_by, updated_on, updated_by`

// UserRepo is the MySQL-backed user store. Uniqueness of user_name, email
// and mobile_number is enforced by unique indexes (see db/migrations).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// FindConflict returns any user sharing the email, mobile number or user
// name in a single disjunctive lookup. ok is false when none exists.
func (r *UserRepo) FindConflict(ctx context.Context, email, mobile, userName string) (model.User, bool, error) {
	q := "SELECT " + userColumns + " FROM users WHERE email=? OR mobile_number=? OR user_name=? LIMIT 1"
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, email, mobile, userName))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

// Insert stores u and sets its ID. A unique-key violation yields
// model.ErrAlreadyExists.
func (r *UserRepo) Insert(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (user_name, email, mobile_number, password_hash, full_name, role, is_active, created_on, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.UserName, u.Email, u.MobileNumber, u.PasswordHash, u.FullName, u.Role, u.Active, u.CreatedOn, u.CreatedBy)
	if err != nil {
		return translate(err, "insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// FindOne returns the first user matching p, or model.ErrNotFound.
func (r *UserRepo) FindOne(ctx context.Context, p UserPredicate) (model.User, error) {
	cond, args := p.SQL()
	q := "SELECT " + userColumns + " FROM users WHERE " + cond + " ORDER BY id LIMIT 1"
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		return model.User{}, translate(err, "user")
	}
	return u, nil
}

// Find returns every user matching p ordered by id. No match is an empty
// slice, not an error.
func (r *UserRepo) Find(ctx context.Context, p UserPredicate) ([]model.User, error) {
	cond, args := p.SQL()
	q := "SELECT " + userColumns + " FROM users WHERE " + cond + " ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable column of u, keyed by user name. It returns
// model.ErrNotFound when no row matched and model.ErrAlreadyExists when the
// new email or mobile number collides with another user.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email=?, mobile_number=?, password_hash=?, full_name=?, role=?, is_active=?, updated_on=?, updated_by=?
		 WHERE user_name=?`,
		u.Email, u.MobileNumber, u.PasswordHash, u.FullName, u.Role, u.Active, nullTime(u.UpdatedOn), nullString(u.UpdatedBy), u.UserName)
	if err != nil {
		return translate(err, "update user")
	}
	// The DSN sets clientFoundRows, so this counts matched rows.
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update user %q: %w", u.UserName, model.ErrNotFound)
	}
	return nil
}

// DeleteByUserName hard-deletes the user. Addresses go with it through the
// foreign key cascade.
func (r *UserRepo) DeleteByUserName(ctx context.Context, userName string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE user_name=?", userName)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete user %q: %w", userName, model.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u         model.User
		updatedOn sql.NullTime
		updatedBy sql.NullString
	)
	err := s.Scan(&u.ID, &u.UserName, &u.Email, &u.MobileNumber, &u.PasswordHash, &u.FullName, &u.Role, &u.Active,
		&u.CreatedOn, &u.CreatedBy, &updatedOn, &updatedBy)
	if err != nil {
		return model.User{}, err
	}
	u.UpdatedOn = updatedOn.Time
	u.UpdatedBy = updatedBy.String
	return u, nil
}
