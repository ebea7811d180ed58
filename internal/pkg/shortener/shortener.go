package shortener

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet used for code generation (62 characters: 0-9, a-z, A-Z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
// Used to mint share tracking codes that must not be guessable.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// EncodeID converts a numeric ID into a short alphanumeric string, the
// same base-62 scheme URL shorteners use.
func EncodeID(id uint) string {
	if id == 0 {
		return string(alphabet[0])
	}

	base := len(alphabet)
	encoded := strings.Builder{}

	for id > 0 {
		remained := id % uint(base)
		encoded.WriteByte(alphabet[remained])
		id = id / uint(base)
	}

	// reverse
	runes := []rune(encoded.String())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}

	return string(runes)
}
