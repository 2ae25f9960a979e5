package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	upperAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerAlphabet  = "abcdefghijkmnopqrstuvwxyz"
	digitAlphabet  = "23456789"
	secretAlphabet = upperAlphabet + lowerAlphabet + digitAlphabet + "-_"

	SecretKeyLength            = 48
	minTemporaryPasswordLength = 8
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
	errShortPassword  = errors.New("temporary password is too short")
)

// RandomString returns a uniformly distributed string drawn from crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := randomIndex(limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position]
	}
	return string(value), nil
}

// SecretKey generates a value suitable for SECRET_KEY.
func SecretKey() (string, error) {
	return RandomString(SecretKeyLength, secretAlphabet)
}

// TemporaryPassword returns a password that always contains an upper-case letter, a
// lower-case letter and a digit, without look-alike characters.
func TemporaryPassword(length int) (string, error) {
	if length < minTemporaryPasswordLength {
		return "", errShortPassword
	}

	required := []string{upperAlphabet, lowerAlphabet, digitAlphabet}
	chars := make([]byte, 0, length)
	for _, alphabet := range required {
		char, err := RandomString(1, alphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, char[0])
	}
	rest, err := RandomString(length-len(required), upperAlphabet+lowerAlphabet+digitAlphabet)
	if err != nil {
		return "", err
	}
	chars = append(chars, rest...)

	for index := len(chars) - 1; index > 0; index-- {
		swap, err := randomIndex(big.NewInt(int64(index + 1)))
		if err != nil {
			return "", err
		}
		chars[index], chars[swap] = chars[swap], chars[index]
	}
	return string(chars), nil
}

func randomIndex(limit *big.Int) (int64, error) {
	position, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return 0, err
	}
	return position.Int64(), nil
}
