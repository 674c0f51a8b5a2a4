package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPricing = errors.New("invalid room pricing")

	hundred = decimal.NewFromInt(100)
)

type Room struct {
	ID       string          `json:"id"`
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Images   []string        `json:"images"`
}

// PricedCheckout is everything the provider session and its metadata are built from.
type PricedCheckout struct {
	Stay            Stay
	RoomRef         string
	RoomName        string
	RoomImages      []string
	UserRef         string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TotalPrice      decimal.Decimal
}

// TotalPrice computes (unit - unit*discount/100) * noOfDays without rounding.
func TotalPrice(unitPrice, discountPercent decimal.Decimal, noOfDays int) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %s", ErrInvalidPricing, unitPrice)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: discount %s out of range", ErrInvalidPricing, discountPercent)
	}
	if noOfDays < 1 {
		return decimal.Zero, fmt.Errorf("%w: %d nights", ErrInvalidPricing, noOfDays)
	}

	discounted := unitPrice.Sub(unitPrice.Mul(discountPercent).Div(hundred))
	return discounted.Mul(decimal.NewFromInt(int64(noOfDays))), nil
}

func NewPricedCheckout(stay *Stay, room *Room, userRef string) (*PricedCheckout, error) {
	total, err := TotalPrice(room.Price, room.Discount, stay.NoOfDays)
	if err != nil {
		return nil, fmt.Errorf("price room %q: %w", room.Slug, err)
	}

	return &PricedCheckout{
		Stay:            *stay,
		RoomRef:         room.ID,
		RoomName:        room.Name,
		RoomImages:      room.Images,
		UserRef:         userRef,
		UnitPrice:       room.Price,
		DiscountPercent: room.Discount,
		TotalPrice:      total,
	}, nil
}

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func (p *PricedCheckout) Metadata() SessionMetadata {
	return SessionMetadata{
		Adults:          p.Stay.Adults,
		Children:        p.Stay.Children,
		CheckinDate:     p.Stay.CheckinDate,
		CheckoutDate:    p.Stay.CheckoutDate,
		NoOfDays:        p.Stay.NoOfDays,
		RoomRef:         p.RoomRef,
		UserRef:         p.UserRef,
		DiscountPercent: p.DiscountPercent,
		TotalPrice:      p.TotalPrice,
	}
}
