package model

import "time"

type Purchase struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	AssetID    string    `json:"asset_id"`
	PaymentID  string    `json:"payment_id"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}
