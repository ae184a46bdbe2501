package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestNewBatchID(t *testing.T) {
	_, err := uuid.Parse(NewBatchID())
	assert.NoError(t, err)
}
