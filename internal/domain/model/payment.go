package model

import (
	"time"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
)

type Payment struct {
	ID              string              `json:"id"`
	ProviderOrderID string              `json:"provider_order_id"`
	AmountCents     int64               `json:"amount_cents"`
	Currency        string              `json:"currency"`
	Status          enums.PaymentStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}
