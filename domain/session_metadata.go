package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys shared by checkout creation and webhook fulfillment.
const (
	MetaAdults          = "adults"
	MetaChildren        = "children"
	MetaCheckinDate     = "checkinDate"
	MetaCheckoutDate    = "checkoutDate"
	MetaNoOfDays        = "noOfDays"
	MetaRoomRef         = "roomRef"
	MetaUserRef         = "userRef"
	MetaDiscountPercent = "discountPercent"
	MetaTotalPrice      = "totalPrice"
)

// SessionMetadata is the booking context stored on the provider session and
// returned untouched on the completion event.
type SessionMetadata struct {
	Adults          int
	Children        int
	CheckinDate     time.Time
	CheckoutDate    time.Time
	NoOfDays        int
	RoomRef         string
	UserRef         string
	DiscountPercent decimal.Decimal
	TotalPrice      decimal.Decimal
}

func (m SessionMetadata) Encode() map[string]string {
	return map[string]string{
		MetaAdults:          strconv.Itoa(m.Adults),
		MetaChildren:        strconv.Itoa(m.Children),
		MetaCheckinDate:     FormatDate(m.CheckinDate),
		MetaCheckoutDate:    FormatDate(m.CheckoutDate),
		MetaNoOfDays:        strconv.Itoa(m.NoOfDays),
		MetaRoomRef:         m.RoomRef,
		MetaUserRef:         m.UserRef,
		MetaDiscountPercent: m.DiscountPercent.String(),
		MetaTotalPrice:      m.TotalPrice.String(),
	}
}

// DecodeSessionMetadata parses every key strictly. Any absent or unparsable
// value yields a *MalformedEventError listing all offending keys.
func DecodeSessionMetadata(raw map[string]string) (*SessionMetadata, error) {
	d := metadataDecoder{raw: raw, bad: make(map[string]string)}

	m := &SessionMetadata{
		Adults:          d.integer(MetaAdults, 1),
		Children:        d.integer(MetaChildren, 0),
		CheckinDate:     d.date(MetaCheckinDate),
		CheckoutDate:    d.date(MetaCheckoutDate),
		NoOfDays:        d.integer(MetaNoOfDays, 1),
		RoomRef:         d.text(MetaRoomRef),
		UserRef:         d.text(MetaUserRef),
		DiscountPercent: d.amount(MetaDiscountPercent),
		TotalPrice:      d.amount(MetaTotalPrice),
	}

	if len(d.bad) > 0 {
		return nil, &MalformedEventError{Keys: d.bad}
	}
	return m, nil
}

type metadataDecoder struct {
	raw map[string]string
	bad map[string]string
}

func (d metadataDecoder) value(key string) (string, bool) {
	v, ok := d.raw[key]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		d.bad[key] = "missing"
		return "", false
	}
	return v, true
}

func (d metadataDecoder) text(key string) string {
	v, _ := d.value(key)
	return v
}

func (d metadataDecoder) integer(key string, minimum int) int {
	v, ok := d.value(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		d.bad[key] = "not an integer"
		return 0
	}
	if n < minimum {
		d.bad[key] = "below " + strconv.Itoa(minimum)
		return 0
	}
	return n
}

func (d metadataDecoder) date(key string) time.Time {
	v, ok := d.value(key)
	if !ok {
		return time.Time{}
	}
	t, err := ParseDate(v)
	if err != nil {
		d.bad[key] = "not a date"
		return time.Time{}
	}
	return t
}

func (d metadataDecoder) amount(key string) decimal.Decimal {
	v, ok := d.value(key)
	if !ok {
		return decimal.Zero
	}
	a, err := decimal.NewFromString(v)
	if err != nil {
		d.bad[key] = "not a decimal"
		return decimal.Zero
	}
	if a.IsNegative() {
		d.bad[key] = "negative"
		return decimal.Zero
	}
	return a
}
