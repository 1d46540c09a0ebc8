package dto

import "time"

// SignedDownloadResponse hands out a time-limited receipt download link.
type SignedDownloadResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
