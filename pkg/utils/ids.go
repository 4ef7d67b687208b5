// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const passCodeDigits = "0123456789"

// GenerateRoomID returns a short url-safe room identifier: a random UUID
// encoded in base58.
func GenerateRoomID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}

// GenerateMessageID returns a lexicographically sortable message id.
func GenerateMessageID() string {
	return ulid.Make().String()
}

// GeneratePassCode returns a numeric pass code of the given length.
func GeneratePassCode(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passCodeDigits)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passCodeDigits[n.Int64()]
	}
	return string(buf), nil
}
