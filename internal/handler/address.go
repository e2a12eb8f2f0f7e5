package handler

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/service"
)

// AddressHandler serves the caller's address book.
type AddressHandler struct {
	Addresses *service.AddressService
}

func NewAddressHandler(addresses *service.AddressService) *AddressHandler {
	return &AddressHandler{Addresses: addresses}
}

type addAddressReq struct {
	ReceiverName string `json:"receiverName"`
	MobileNumber string `json:"mobileNumber"`
	Label        string `json:"label"`
	Line1        string `json:"line1"`
	Line2        string `json:"line2"`
	Line3        string `json:"line3"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	PlusCode     string `json:"plusCode"`
}

func (r addAddressReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ReceiverName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.MobileNumber, validation.Required, validation.Length(7, 15), is.Digit),
		validation.Field(&r.Label, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Line1, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Line2, validation.Length(0, 255)),
		validation.Field(&r.Line3, validation.Length(0, 255)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.State, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PostalCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PlusCode, validation.Length(0, 20)),
	)
}

func (r addAddressReq) address() model.Address {
	return model.Address{
		ReceiverName: r.ReceiverName,
		MobileNumber: r.MobileNumber,
		Label:        r.Label,
		Line1:        r.Line1,
		Line2:        r.Line2,
		Line3:        r.Line3,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		PlusCode:     r.PlusCode,
	}
}

// updateAddressReq names the address by id; nil fields stay unchanged.
type updateAddressReq struct {
	ID           uint64  `json:"id"`
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

func (r updateAddressReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.ReceiverName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.MobileNumber, validation.NilOrNotEmpty, validation.Length(7, 15), is.Digit),
		validation.Field(&r.Label, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&r.Line1, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.City, validation.NilOrNotEmpty),
		validation.Field(&r.State, validation.NilOrNotEmpty),
		validation.Field(&r.PostalCode, validation.NilOrNotEmpty, validation.Length(1, 20)),
		validation.Field(&r.Country, validation.NilOrNotEmpty),
	)
}

func (r updateAddressReq) changes() model.AddressChanges {
	return model.AddressChanges{
		ReceiverName: r.ReceiverName,
		MobileNumber: r.MobileNumber,
		Label:        r.Label,
		Line1:        r.Line1,
		Line2:        r.Line2,
		Line3:        r.Line3,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		PlusCode:     r.PlusCode,
	}
}

type deleteAddressesReq struct {
	IDs []uint64 `json:"ids"`
}

func (r deleteAddressesReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, model.MaxAddressesPerUser)),
	)
}

// List returns the caller's addresses.
func (h *AddressHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Addresses.List(ctx, p.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Add stores a new address for the caller.
func (h *AddressHandler) Add(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req addAddressReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Addresses.Add(ctx, p.UserName, req.address())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// Update edits one of the caller's addresses.
func (h *AddressHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req updateAddressReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Addresses.Update(ctx, p.UserName, req.ID, req.changes())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Delete removes the listed addresses of the caller.
func (h *AddressHandler) Delete(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req deleteAddressesReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.Addresses.Delete(ctx, p.UserName, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
