package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/cityai/internal/common"
)

// NewCode returns a random numeric code of common.VerificationCodeLength digits.
func NewCode() (string, error) {
	var b strings.Builder
	b.Grow(common.VerificationCodeLength)

	ten := big.NewInt(10)
	for i := 0; i < common.VerificationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	if b.Len() != common.VerificationCodeLength {
		return "", errors.New("invalid code length")
	}
	return b.String(), nil
}

// HashCode is what gets stored instead of the code itself.
func HashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// CheckCode compares code against a stored HashCode in constant time.
func CheckCode(hash []byte, code string) bool {
	if len(hash) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(hash, HashCode(code)) == 1
}

// NewRefreshToken returns an opaque 64-char hex token.
func NewRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}
