package dto

type MediaUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type SignUploadRequest struct {
	FileName string `json:"file_name"`
}

type SignUploadResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}
