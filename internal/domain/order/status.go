package order

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusScheduled       Status = "scheduled"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
	StatusRefunded        Status = "refunded"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaid, StatusScheduled,
		StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed from this status
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusAwaitingPayment || target == StatusCancelled || target == StatusRejected
	case StatusAwaitingPayment:
		return target == StatusPaid || target == StatusCancelled || target == StatusRejected
	case StatusPaid:
		return target == StatusScheduled || target == StatusCancelled || target == StatusRefunded
	case StatusScheduled:
		return target == StatusInProgress || target == StatusCancelled || target == StatusRefunded
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted:
		return target == StatusRefunded
	case StatusCancelled, StatusRejected, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// CanCancel reports whether an order in this status may be cancelled
func (s Status) CanCancel() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// CanRefund reports whether an order in this status may be refunded
func (s Status) CanRefund() bool {
	return s.CanTransitionTo(StatusRefunded)
}

// AllStatuses returns every known status, in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusAwaitingPayment, StatusPaid, StatusScheduled,
		StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected, StatusRefunded,
	}
}
