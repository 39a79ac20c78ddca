package dto

import "time"

type AttachmentDTO struct {
	ID         uint64    `json:"id"`
	Slot       string    `json:"slot"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	Mime       string    `json:"mime"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type SignedURLDTO struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
