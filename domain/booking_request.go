package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BookingRequest is the checkout payload posted by the booking page.
type BookingRequest struct {
	CheckinDate  string `json:"checkinDate" validate:"required"`
	CheckoutDate string `json:"checkoutDate" validate:"required"`
	Adults       int    `json:"adults" validate:"gte=1"`
	Children     int    `json:"children" validate:"gte=0"`
	NoOfDays     int    `json:"noOfDays" validate:"gte=1"`
	RoomSlug     string `json:"hotelRoomSlug" validate:"required"`
}

// Stay is a BookingRequest that passed validation, with dates parsed.
type Stay struct {
	CheckinDate  time.Time
	CheckoutDate time.Time
	Adults       int
	Children     int
	NoOfDays     int
	RoomSlug     string
}

func (r *BookingRequest) Validate() (*Stay, error) {
	verr := NewValidationError()

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), describeFieldError(fe))
		}
	}

	var checkin, checkout time.Time
	var err error
	if r.CheckinDate != "" {
		if checkin, err = ParseDate(r.CheckinDate); err != nil {
			verr.Add("checkinDate", "must be a date")
		}
	}
	if r.CheckoutDate != "" {
		if checkout, err = ParseDate(r.CheckoutDate); err != nil {
			verr.Add("checkoutDate", "must be a date")
		}
	}
	if !checkin.IsZero() && !checkout.IsZero() && !checkout.After(checkin) {
		verr.Add("checkoutDate", "must be after checkinDate")
	}

	if !verr.Empty() {
		return nil, verr
	}

	return &Stay{
		CheckinDate:  checkin,
		CheckoutDate: checkout,
		Adults:       r.Adults,
		Children:     r.Children,
		NoOfDays:     r.NoOfDays,
		RoomSlug:     r.RoomSlug,
	}, nil
}

// ParseDate accepts a calendar date or a timestamp and keeps only the date part.
func ParseDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(s), "T")
	t, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
