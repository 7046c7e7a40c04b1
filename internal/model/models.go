package model

import (
	"time"
)

// Link is one collected share-link. Hash is the identity of the trimmed raw
// text, so re-collecting the same link is a no-op.
type Link struct {
	ID        uint   `gorm:"primaryKey"`
	Hash      string `gorm:"uniqueIndex"`
	Raw       string
	Scheme    string `gorm:"index"`
	Source    string `gorm:"index"`
	CreatedAt time.Time

	// Parsed endpoint, kept for the status dashboard.
	Name   string
	Server string
	Port   int
}
