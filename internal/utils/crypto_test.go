package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeccak256Hex(t *testing.T) {
	// Keccak-256 of the empty input.
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", Keccak256Hex())
	assert.Len(t, Keccak256Hex([]byte("track-1")), 66)
}
