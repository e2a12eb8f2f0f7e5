package model

import "time"

// RoleAdmin is the role allowed on the admin endpoints.
const RoleAdmin = "ADMIN"

// User represents a user record as stored in the `users` table. Each field
// corresponds to a column in the database. The json tags are omitted here
// because these structs are used internally by the repository and service
// layers; the profile view returned to callers is UserProfile.
//
// Fields:
//
//	ID           – primary key identifier of the user (system assigned).
//	UserName     – unique login name; also the token subject.
//	Email        – unique email address.
//	MobileNumber – unique mobile number.
//	PasswordHash – bcrypt hashed password.
//	FullName     – display name.
//	Role         – free-form role name (e.g. ADMIN or USER).
//	Active       – whether the account is active; inactive accounts cannot edit their profile.
//	CreatedOn    – timestamp of creation.
//	CreatedBy    – user name of the creator (the user itself on registration).
//	UpdatedOn    – timestamp of the last update (zero if never updated).
//	UpdatedBy    – user name of the last updater (empty if never updated).
type User struct {
	ID           uint64    // users.id
	UserName     string    // users.user_name
	Email        string    // users.email
	MobileNumber string    // users.mobile_number
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Role         string    // users.role
	Active       bool      // users.is_active
	CreatedOn    time.Time // users.created_on
	CreatedBy    string    // users.created_by
	UpdatedOn    time.Time // users.updated_on (nullable)
	UpdatedBy    string    // users.updated_by (nullable)
}

// UserProfile is the public view of a user. It never carries the password
// hash and is the value stored in the profile cache.
type UserProfile struct {
	UserName     string     `json:"userName"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	MobileNumber string     `json:"mobileNumber"`
	Active       bool       `json:"userStatus"`
	Role         string     `json:"role"`
	CreatedOn    time.Time  `json:"createdOn"`
	CreatedBy    string     `json:"createdBy"`
	UpdatedOn    *time.Time `json:"updatedOn,omitempty"`
	UpdatedBy    string     `json:"updatedBy,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() UserProfile {
	p := UserProfile{
		UserName:     u.UserName,
		Email:        u.Email,
		FullName:     u.FullName,
		MobileNumber: u.MobileNumber,
		Active:       u.Active,
		Role:         u.Role,
		CreatedOn:    u.CreatedOn,
		CreatedBy:    u.CreatedBy,
		UpdatedBy:    u.UpdatedBy,
	}
	if !u.UpdatedOn.IsZero() {
		t := u.UpdatedOn
		p.UpdatedOn = &t
	}
	return p
}

// Profiles converts a slice of users to their public views.
func Profiles(users []User) []UserProfile {
	out := make([]UserProfile, len(users))
	for i := range users {
		out[i] = users[i].Profile()
	}
	return out
}

// Principal is the identity resolved for an authenticated request.
type Principal struct {
	UserName string `json:"userName"`
	Role     string `json:"role"`
}

// HasRole reports whether the principal holds one of roles.
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
