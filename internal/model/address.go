package model

import "time"

// MaxAddressesPerUser caps how many addresses a single user may hold.
const MaxAddressesPerUser = 20

// Address models a row in the `address` table. An address references its
// user by user name; it does not own the user record.
type Address struct {
	ID           uint64    `json:"id"`
	UserName     string    `json:"userName"`
	ReceiverName string    `json:"receiverName"`
	MobileNumber string    `json:"mobileNumber"`
	Label        string    `json:"label"`
	Line1        string    `json:"line1"`
	Line2        string    `json:"line2,omitempty"`
	Line3        string    `json:"line3,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	PlusCode     string    `json:"plusCode,omitempty"`
	CreatedOn    time.Time `json:"createdOn"`
	CreatedBy    string    `json:"createdBy"`
	UpdatedOn    time.Time `json:"updatedOn,omitempty"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

// AddressChanges carries a partial address update. Nil fields are left
// untouched on the stored record.
type AddressChanges struct {
	ReceiverName *string `json:"receiverName"`
	MobileNumber *string `json:"mobileNumber"`
	Label        *string `json:"label"`
	Line1        *string `json:"line1"`
	Line2        *string `json:"line2"`
	Line3        *string `json:"line3"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postalCode"`
	Country      *string `json:"country"`
	PlusCode     *string `json:"plusCode"`
}

// ApplyTo overwrites the fields of a that are present in c.
func (c AddressChanges) ApplyTo(a *Address) {
	apply(&a.ReceiverName, c.ReceiverName)
	apply(&a.MobileNumber, c.MobileNumber)
	apply(&a.Label, c.Label)
	apply(&a.Line1, c.Line1)
	apply(&a.Line2, c.Line2)
	apply(&a.Line3, c.Line3)
	apply(&a.City, c.City)
	apply(&a.State, c.State)
	apply(&a.PostalCode, c.PostalCode)
	apply(&a.Country, c.Country)
	apply(&a.PlusCode, c.PlusCode)
}

// ProfileChanges carries a partial profile update.
type ProfileChanges struct {
	FullName     *string `json:"fullName"`
	MobileNumber *string `json:"mobileNumber"`
}

// ApplyTo overwrites the fields of u that are present in c.
func (c ProfileChanges) ApplyTo(u *User) {
	apply(&u.FullName, c.FullName)
	apply(&u.MobileNumber, c.MobileNumber)
}

func apply[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
