package utils

import "github.com/google/uuid"

// GenerateID returns a short random ID for requests and batches.
func GenerateID() string {
	return uuid.NewString()[:8]
}

// NewBatchID returns a full UUID for a batch that did not name itself.
func NewBatchID() string {
	return uuid.NewString()
}
