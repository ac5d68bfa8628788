package rand

import (
	"crypto/rand"

	"github.com/sirupsen/logrus"
)

const (
	// Alphabets for the generators below. Order does not matter, only membership.
	allLetters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// UpperAlphabet is the set of characters StringWithUpper draws from.
const UpperAlphabet = upperLetters

func StringWithAll(n int) string {
	return secureRandomString(allLetters, n)
}

// StringWithUpper returns n characters drawn uniformly from [A-Z0-9].
func StringWithUpper(n int) string {
	return secureRandomString(upperLetters, n)
}

// secureRandomString returns a string of the requested length made from the
// given ASCII alphabet. Random bytes are masked down to the smallest power of
// two covering the alphabet and out-of-range values are rejected, so every
// character is equally likely. Panics if the alphabet is empty or longer than 256.
func secureRandomString(alphabet string, length int) string {
	size := len(alphabet)
	if size == 0 || size > 256 {
		panic("alphabet length must be greater than 0 and less than or equal to 256")
	}
	if length <= 0 {
		return ""
	}

	var bits byte
	for n := size - 1; n != 0; n >>= 1 {
		bits++
	}
	mask := byte(1<<bits - 1)

	bufferSize := length + length/3 + 1

	result := make([]byte, 0, length)
	var buf []byte
	for j := 0; len(result) < length; j++ {
		if j%bufferSize == 0 {
			buf = secureRandomBytes(bufferSize)
		}
		if idx := int(buf[j%bufferSize] & mask); idx < size {
			result = append(result, alphabet[idx])
		}
	}

	return string(result)
}

// secureRandomBytes returns the requested number of bytes using crypto/rand
func secureRandomBytes(length int) []byte {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		logrus.Fatal("Unable to generate random bytes")
	}
	return b
}
