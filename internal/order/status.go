package order

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaymentFailed Status = "payment_failed"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)
