package model

import "time"

// VendorMapping maps a normalized vendor key to a category learned from review.
type VendorMapping struct {
	LastUpdated time.Time
	OwnerID     string
	Key         string
	Category    Category
	Confidence  int
	Occurrences int
}

// PatternMapping maps a normalized description key to a category.
type PatternMapping struct {
	LastUpdated time.Time
	OwnerID     string
	Key         string
	Category    Category
	Confidence  int
	Occurrences int
}

// Suggestion is a category recommendation from the learning store.
type Suggestion struct {
	Category   Category
	Source     ClassificationSource
	Reason     string
	Confidence int
}
