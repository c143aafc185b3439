package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidHash      = errors.New("invalid hash format")
	ErrInvalidSalt      = errors.New("invalid salt")
)

// GenerateSalt returns a fresh random salt, base64 encoded. Every credential
// gets its own and it is stored next to the hash.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

// HashPassword derives an Argon2id digest of password+pepper with the given
// salt. The result is PHC-like but omits the salt segment:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<hash>
func HashPassword(password, salt string) (string, error) {
	rawSalt, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password+GetPepper()),
		rawSalt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword recomputes the digest for password with the stored salt and
// parameters and compares in constant time. It returns nil on a match.
func VerifyPassword(password, encodedHash, salt string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 5 || parts[0] != "" {
		return fmt.Errorf("%w: expected 5 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}
	if parts[2] != "v=19" {
		return fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: failed to parse parameters: %v", ErrInvalidHash, err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: failed to decode hash", ErrInvalidHash)
	}

	rawSalt, err := decodeSalt(salt)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+GetPepper()),
		rawSalt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded by the decoded hash
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

func decodeSalt(salt string) ([]byte, error) {
	raw, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(raw) < 8 {
		return nil, ErrInvalidSalt
	}
	return raw, nil
}
