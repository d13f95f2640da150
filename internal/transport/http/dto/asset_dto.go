package dto

import "time"

type UploadAssetRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	CategoryID   int64   `json:"category_id"`
	FileURL      string  `json:"file_url"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

type AssetResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	UploaderName string    `json:"uploader_name,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AssetListResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type AdminTotalsResponse struct {
	Users  int64 `json:"users"`
	Assets int64 `json:"assets"`
}
