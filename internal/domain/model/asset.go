package model

import (
	"time"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
)

type Asset struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  *string              `json:"description,omitempty"`
	UserID       string               `json:"user_id"`
	CategoryID   int64                `json:"category_id"`
	FileURL      string               `json:"file_url"`
	ThumbnailURL string               `json:"thumbnail_url"`
	Status       enums.ApprovalStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
