package models

import "time"

// PaymentStatus is the gateway-facing lifecycle of a payment record.
type PaymentStatus string

// Payment statuses.
const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusOverdue  PaymentStatus = "overdue"
)

// Payment links an enrollee to a gateway transaction reference. The engine
// does not own these rows; only the paid transition triggers allocation.
type Payment struct {
	ID         string        `db:"id" json:"id"`
	EnrolleeID string        `db:"enrollee_id" json:"enrollee_id"`
	Amount     float64       `db:"amount" json:"amount"`
	TxRef      string        `db:"tx_ref" json:"tx_ref"`
	Status     PaymentStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
