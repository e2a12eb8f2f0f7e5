package repository

import (
	"strings"

	"github.com/iliyamo/user-directory/internal/model"
)

// Condition is one filter over user records. It knows both how to render
// itself as a SQL fragment and how to test an in-memory record, so the same
// predicate drives the MySQL store and the memory store.
type Condition struct {
	column string
	arg    any
	match  func(u model.User) bool
}

// UserNameIs matches the user with the given user name.
func UserNameIs(userName string) Condition {
	return Condition{column: "user_name", arg: userName, match: func(u model.User) bool { return u.UserName == userName }}
}

// EmailIs matches the user with the given email.
func EmailIs(email string) Condition {
	return Condition{column: "email", arg: email, match: func(u model.User) bool { return u.Email == email }}
}

// MobileIs matches the user with the given mobile number.
func MobileIs(mobile string) Condition {
	return Condition{column: "mobile_number", arg: mobile, match: func(u model.User) bool { return u.MobileNumber == mobile }}
}

// RoleIs matches users holding role.
func RoleIs(role string) Condition {
	return Condition{column: "role", arg: role, match: func(u model.User) bool { return u.Role == role }}
}

// ActiveIs matches users whose status equals active.
func ActiveIs(active bool) Condition {
	return Condition{column: "is_active", arg: active, match: func(u model.User) bool { return u.Active == active }}
}

// UserPredicate is a conjunction of conditions. The zero value matches
// every user.
type UserPredicate struct {
	conds []Condition
}

// AllUsers returns the predicate that matches everything.
func AllUsers() UserPredicate { return UserPredicate{} }

// Where builds a predicate from conds.
func Where(conds ...Condition) UserPredicate {
	return UserPredicate{conds: append([]Condition(nil), conds...)}
}

// And returns a new predicate that additionally requires c. The receiver
// is not modified.
func (p UserPredicate) And(c Condition) UserPredicate {
	out := make([]Condition, 0, len(p.conds)+1)
	out = append(out, p.conds...)
	return UserPredicate{conds: append(out, c)}
}

// Len returns the number of conditions.
func (p UserPredicate) Len() int { return len(p.conds) }

// SQL renders the predicate as a WHERE clause body and its positional
// arguments. An empty predicate renders as "1=1".
func (p UserPredicate) SQL() (string, []any) {
	if len(p.conds) == 0 {
		return "1=1", nil
	}
	where := make([]string, 0, len(p.conds))
	args := make([]any, 0, len(p.conds))
	for _, c := range p.conds {
		where = append(where, c.column+" = ?")
		args = append(args, c.arg)
	}
	return strings.Join(where, " AND "), args
}

// Matches reports whether u satisfies every condition.
func (p UserPredicate) Matches(u model.User) bool {
	for _, c := range p.conds {
		if !c.match(u) {
			return false
		}
	}
	return true
}
