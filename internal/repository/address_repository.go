package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/user-directory/internal/model"
)

const addressColumns = `id, user_name, receiver_name, mobile_number, label, line1, line2, line3,
	city, state, postal_code, country, plus_code, created_on, created_by, updated_on, updated_by`

// AddressRepo is the MySQL-backed address store.
type AddressRepo struct {
	db *sql.DB
}

// NewAddressRepo constructs an AddressRepo with the given DB handle.
func NewAddressRepo(db *sql.DB) *AddressRepo {
	return &AddressRepo{db: db}
}

// ListByUserName returns the user's addresses ordered by id.
func (r *AddressRepo) ListByUserName(ctx context.Context, userName string) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM address WHERE user_name=? ORDER BY id", userName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByUserName returns how many addresses the user holds.
func (r *AddressRepo) CountByUserName(ctx context.Context, userName string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM address WHERE user_name=?", userName).Scan(&n)
	return n, err
}

// Insert stores a and sets its ID.
func (r *AddressRepo) Insert(ctx context.Context, a *model.Address) error {
	const q = `INSERT INTO address (user_name, receiver_name, mobile_number, label, line1, line2, line3,
	           city, state, postal_code, country, plus_code, created_on, created_by)
	           VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		a.UserName, a.ReceiverName, a.MobileNumber, a.Label, a.Line1, nullString(a.Line2), nullString(a.Line3),
		a.City, a.State, a.PostalCode, a.Country, nullString(a.PlusCode), a.CreatedOn, a.CreatedBy)
	if err != nil {
		return translate(err, "insert address")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByIDAndUser loads one address owned by userName. An address that
// exists but belongs to someone else is reported as model.ErrNotFound.
func (r *AddressRepo) GetByIDAndUser(ctx context.Context, id uint64, userName string) (model.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM address WHERE id=? AND user_name=?", id, userName))
	if err != nil {
		return model.Address{}, translate(err, fmt.Sprintf("address %d", id))
	}
	return a, nil
}

// Update writes every mutable column of a.
func (r *AddressRepo) Update(ctx context.Context, a *model.Address) error {
	const q = `UPDATE address SET receiver_name=?, mobile_number=?, label=?, line1=?, line2=?, line3=?,
	           city=?, state=?, postal_code=?, country=?, plus_code=?, updated_on=?, updated_by=?
	           WHERE id=? AND user_name=?`
	res, err := r.db.ExecContext(ctx, q,
		a.ReceiverName, a.MobileNumber, a.Label, a.Line1, nullString(a.Line2), nullString(a.Line3),
		a.City, a.State, a.PostalCode, a.Country, nullString(a.PlusCode), nullTime(a.UpdatedOn), nullString(a.UpdatedBy),
		a.ID, a.UserName)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update address %d: %w", a.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteByIDs removes the listed addresses owned by userName and returns
// how many rows went away. Unknown or foreign ids are ignored.
func (r *AddressRepo) DeleteByIDs(ctx context.Context, userName string, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, userName)
	for _, id := range ids {
		args = append(args, id)
	}
	q := "DELETE FROM address WHERE user_name=? AND id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAddress(s rowScanner) (model.Address, error) {
	var (
		a                      model.Address
		line2, line3, plusCode sql.NullString
		updatedOn              sql.NullTime
		updatedBy              sql.NullString
	)
	err := s.Scan(&a.ID, &a.UserName, &a.ReceiverName, &a.MobileNumber, &a.Label, &a.Line1, &line2, &line3,
		&a.City, &a.State, &a.PostalCode, &a.Country, &plusCode, &a.CreatedOn, &a.CreatedBy, &updatedOn, &updatedBy)
	if err != nil {
		return model.Address{}, err
	}
	a.Line2, a.Line3, a.PlusCode = line2.String, line3.String, plusCode.String
	a.UpdatedOn, a.UpdatedBy = updatedOn.Time, updatedBy.String
	return a, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
