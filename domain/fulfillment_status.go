package domain

type FulfillmentStatus string

const (
	FulfillmentStatusCreated    FulfillmentStatus = "CREATED"
	FulfillmentStatusFulfilling FulfillmentStatus = "FULFILLING"
	FulfillmentStatusFulfilled  FulfillmentStatus = "FULFILLED"
)

var allowedTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentStatusCreated:    {FulfillmentStatusFulfilling},
	FulfillmentStatusFulfilling: {FulfillmentStatusFulfilling, FulfillmentStatusFulfilled},
}

func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentStatusFulfilled
}

// String representation (for logging)
func (s FulfillmentStatus) String() string {
	return string(s)
}

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentStatusCreated, FulfillmentStatusFulfilling, FulfillmentStatusFulfilled:
		return true
	}
	return false
}

// CanTransitionTo reports whether from may move to to. FULFILLING may be
// re-entered so a redelivered event can retry the availability update.
func CanTransitionTo(from, to FulfillmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
