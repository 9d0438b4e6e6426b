package auth

import (
	"crypto/sha1" //nolint:gosec // legacy web-site hashes
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// ErrUnsupportedHasher is returned for encodings the checker cannot verify.
var ErrUnsupportedHasher = errors.New("unsupported password hasher")

// unusablePrefix marks accounts that may not log in with a password.
const unusablePrefix = "!"

// CheckPassword reports whether password matches a password encoded by the
// web application ("<algorithm>$<data>"). An unusable or empty encoding never matches.
func CheckPassword(password, encoded string) (bool, error) {
	if encoded == "" || strings.HasPrefix(encoded, unusablePrefix) {
		return false, nil
	}

	algorithm, data, ok := strings.Cut(encoded, "$")
	if !ok {
		return false, fmt.Errorf("%w: malformed encoding", ErrUnsupportedHasher)
	}

	switch algorithm {
	case "pbkdf2_sha256":
		return checkPBKDF2(password, data, sha256.New, sha256.Size)
	case "pbkdf2_sha1":
		return checkPBKDF2(password, data, sha1.New, sha1.Size)
	case "bcrypt_sha256":
		digest := sha256.Sum256([]byte(password))
		return checkBcrypt(hex.EncodeToString(digest[:]), data)
	case "bcrypt":
		return checkBcrypt(password, data)
	case "argon2":
		return checkArgon2(password, data)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedHasher, algorithm)
	}
}

// checkPBKDF2 verifies "<iterations>$<salt>$<base64 hash>".
func checkPBKDF2(password, data string, h func() hash.Hash, size int) (bool, error) {
	parts := strings.Split(data, "$")
	if len(parts) != 3 {
		return false, fmt.Errorf("%w: malformed pbkdf2 encoding", ErrUnsupportedHasher)
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return false, fmt.Errorf("%w: invalid pbkdf2 iterations", ErrUnsupportedHasher)
	}

	expected, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: invalid pbkdf2 hash", ErrUnsupportedHasher)
	}

	keyLen := size
	if len(expected) > 0 {
		keyLen = len(expected)
	}
	actual := pbkdf2.Key([]byte(password), []byte(parts[1]), iterations, keyLen, h)
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

// checkBcrypt verifies a modular-crypt bcrypt hash ("$2b$12$...").
func checkBcrypt(password, data string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(data), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrUnsupportedHasher, err)
	}
}

// checkArgon2 verifies "<variant>$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>"
// with unpadded base64 salt and hash.
func checkArgon2(password, data string) (bool, error) {
	parts := strings.Split(data, "$")
	if len(parts) != 5 {
		return false, fmt.Errorf("%w: malformed argon2 encoding", ErrUnsupportedHasher)
	}

	variant := parts[0]
	if variant != "argon2id" && variant != "argon2i" {
		return false, fmt.Errorf("%w: argon2 variant %q", ErrUnsupportedHasher, variant)
	}
	if parts[1] != "v=19" {
		return false, fmt.Errorf("%w: argon2 version %q", ErrUnsupportedHasher, parts[1])
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("%w: invalid argon2 parameters", ErrUnsupportedHasher)
	}
	if iterations == 0 || threads == 0 {
		return false, fmt.Errorf("%w: invalid argon2 parameters", ErrUnsupportedHasher)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("%w: invalid argon2 salt", ErrUnsupportedHasher)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(expected) == 0 {
		return false, fmt.Errorf("%w: invalid argon2 hash", ErrUnsupportedHasher)
	}

	var actual []byte
	if variant == "argon2id" {
		actual = argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	} else {
		actual = argon2.Key([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	}
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
