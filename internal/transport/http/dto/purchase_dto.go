package dto

import "time"

type CreatePurchaseRequest struct {
	AssetID string `json:"asset_id"`
}

type CreatePurchaseResponse struct {
	ProviderOrderID string `json:"provider_order_id"`
	ApprovalURL     string `json:"approval_url"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

type PurchaseCheckResponse struct {
	Purchased bool `json:"purchased"`
}

type PurchaseWebhookRequest struct {
	ProviderOrderID string `json:"provider_order_id"`
}

type PurchaseResponse struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	AssetTitle string    `json:"asset_title,omitempty"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type PurchaseListResponse struct {
	Purchases []PurchaseResponse `json:"purchases"`
}

type PurchaseWebhookResponse struct {
	PurchaseID string `json:"purchase_id"`
	Repeated   bool   `json:"repeated"`
}
