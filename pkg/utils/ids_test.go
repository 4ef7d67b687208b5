// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"

	"github.com/akamensky/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomID(t *testing.T) {
	first := GenerateRoomID()
	second := GenerateRoomID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)

	decoded, err := base58.Decode(first)
	require.NoError(t, err)
	assert.Len(t, decoded, 16)
}

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID()
	assert.Len(t, id, 26)
	assert.NotEqual(t, id, GenerateMessageID())
}

func TestGeneratePassCode(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"six digits", 6},
		{"one digit", 1},
		{"zero length", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := GeneratePassCode(tt.length)
			require.NoError(t, err)
			assert.Len(t, code, tt.length)
			for _, c := range code {
				assert.True(t, c >= '0' && c <= '9', "unexpected rune %q", c)
			}
		})
	}
}
