package model

import "time"

// AttachmentMeta is the blob-free reference a task keeps to a stored attachment
type AttachmentMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the attachment has reached its expiry at now
func (a AttachmentMeta) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}
