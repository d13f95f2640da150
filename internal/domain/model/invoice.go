package model

import (
	"time"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
)

type Invoice struct {
	ID            string              `json:"id"`
	InvoiceNumber string              `json:"invoice_number"`
	PurchaseID    string              `json:"purchase_id"`
	UserID        string              `json:"user_id"`
	AmountCents   int64               `json:"amount_cents"`
	Currency      string              `json:"currency"`
	Status        enums.InvoiceStatus `json:"status"`
	HTMLContent   string              `json:"-"`
	CreatedAt     time.Time           `json:"created_at"`
}
