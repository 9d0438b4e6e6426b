package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Vectors produced independently with Python's hashlib.pbkdf2_hmac.
const (
	pbkdf2SHA256Vector = "pbkdf2_sha256$1000$saltysalt$ogyELkenhssjo9YzB+hLx2dedTg0guGJUM+KVU08H9I="
	pbkdf2SHA1Vector   = "pbkdf2_sha1$1000$saltysalt$IJr7AsPnoFOPxPTaJU4itBYEaz4="
	vectorPassword     = "correct horse"
)

func bcryptEncoding(t *testing.T, algorithm, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return algorithm + "$" + string(h)
}

func argon2Encoding(variant, password string) string {
	salt := []byte("somesaltsomesalt")
	var key []byte
	if variant == "argon2id" {
		key = argon2.IDKey([]byte(password), salt, 2, 1024, 1, 32)
	} else {
		key = argon2.Key([]byte(password), salt, 2, 1024, 1, 32)
	}
	return fmt.Sprintf("argon2$%s$v=19$m=1024,t=2,p=1$%s$%s",
		variant,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	t.Run("pbkdf2_sha256 vector", func(t *testing.T) {
		t.Parallel()
		ok, err := CheckPassword(vectorPassword, pbkdf2SHA256Vector)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = CheckPassword("wrong horse", pbkdf2SHA256Vector)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("pbkdf2_sha1 vector", func(t *testing.T) {
		t.Parallel()
		ok, err := CheckPassword(vectorPassword, pbkdf2SHA1Vector)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("bcrypt", func(t *testing.T) {
		t.Parallel()
		encoded := bcryptEncoding(t, "bcrypt", "s3cret")

		ok, err := CheckPassword("s3cret", encoded)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = CheckPassword("S3cret", encoded)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("bcrypt_sha256 prehashes the password", func(t *testing.T) {
		t.Parallel()
		digest := sha256.Sum256([]byte("s3cret"))
		encoded := bcryptEncoding(t, "bcrypt_sha256", hex.EncodeToString(digest[:]))

		ok, err := CheckPassword("s3cret", encoded)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("argon2id and argon2i", func(t *testing.T) {
		t.Parallel()
		for _, variant := range []string{"argon2id", "argon2i"} {
			encoded := argon2Encoding(variant, "пароль")

			ok, err := CheckPassword("пароль", encoded)
			require.NoError(t, err, variant)
			require.True(t, ok, variant)

			ok, err = CheckPassword("парол", encoded)
			require.NoError(t, err, variant)
			require.False(t, ok, variant)
		}
	})

	t.Run("unusable passwords never match", func(t *testing.T) {
		t.Parallel()
		for _, encoded := range []string{"", "!", "!abcdef0123456789"} {
			ok, err := CheckPassword("", encoded)
			require.NoError(t, err)
			require.False(t, ok)
		}
	})

	t.Run("unknown or malformed encodings error", func(t *testing.T) {
		t.Parallel()
		for _, encoded := range []string{
			"md5$salt$abc",
			"plaintext",
			"pbkdf2_sha256$abc$salt$hash",
			"pbkdf2_sha256$1000$salt",
			"pbkdf2_sha256$1000$salt$***",
			"argon2$argon2d$v=19$m=1024,t=2,p=1$c2FsdA$aGFzaA",
			"argon2$argon2id$v=16$m=1024,t=2,p=1$c2FsdA$aGFzaA",
			"argon2$argon2id$v=19$bogus$c2FsdA$aGFzaA",
		} {
			ok, err := CheckPassword("x", encoded)
			require.ErrorIs(t, err, ErrUnsupportedHasher, encoded)
			require.False(t, ok)
		}
	})
}

func FuzzCheckPassword(f *testing.F) {
	f.Add("correct horse", pbkdf2SHA256Vector)
	f.Add("x", "bcrypt$$2b$04$abc")
	f.Add("x", "argon2$argon2id$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA")
	f.Add("", "!")
	f.Add("x", "$$$$")

	f.Fuzz(func(t *testing.T, password, encoded string) {
		ok, err := CheckPassword(password, encoded)
		if err != nil && ok {
			t.Errorf("CheckPassword(%q, %q) matched and errored", password, encoded)
		}
	})
}
