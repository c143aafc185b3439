package cryptox

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// GenerateNumericCode returns a zero-padded numeric code of the given length
// (6 or 8 digits). Each call draws a fresh secret and counter, so codes are
// independent of each other; HOTP truncation only maps the randomness onto
// the decimal range.
func GenerateNumericCode(digits int) (string, error) {
	var d otp.Digits
	switch digits {
	case 6:
		d = otp.DigitsSix
	case 8:
		d = otp.DigitsEight
	default:
		return "", fmt.Errorf("unsupported code length %d", digits)
	}

	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate code secret: %w", err)
	}
	var counter [8]byte
	if _, err := rand.Read(counter[:]); err != nil {
		return "", fmt.Errorf("failed to generate code counter: %w", err)
	}

	code, err := hotp.GenerateCodeCustom(
		base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret),
		binary.BigEndian.Uint64(counter[:]),
		hotp.ValidateOpts{Digits: d, Algorithm: otp.AlgorithmSHA1},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}
