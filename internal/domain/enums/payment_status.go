package enums

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type InvoiceStatus string

const (
	InvoiceStatusPaid InvoiceStatus = "paid"
)
