package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// MinHashSaltLength is the shortest LOG_HASH_SALT accepted in production.
const MinHashSaltLength = 32

// ErrShortHashSalt is returned by SetHashSalt for a missing or short salt.
var ErrShortHashSalt = fmt.Errorf("LOG_HASH_SALT must be at least %d characters", MinHashSaltLength)

var hashSalt = "unset-salt"

// SetHashSalt sets the salt used to hash chat ids and usernames.
func SetHashSalt(salt string) error {
	if len(salt) < MinHashSaltLength {
		return ErrShortHashSalt
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashChatID creates a privacy-preserving hash of a chat ID.
// Private chats share the user's ID, so this is also used for users.
func HashChatID(chatID int64) string {
	data := fmt.Sprintf("%d:%s", chatID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// HashUsername hashes a web-site username for log correlation.
func HashUsername(username string) string {
	data := strings.ToLower(username) + ":" + hashSalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription redacts a description but keeps its shape for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(desc)), len([]rune(desc)))
}

// SanitizeText is a general-purpose sanitizer for user-provided text.
// Commands keep their name so routing stays debuggable.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if strings.HasPrefix(text, "/") {
		name, _, _ := strings.Cut(text, " ")
		return fmt.Sprintf("%s <%d chars>", name, len([]rune(text)))
	}

	return fmt.Sprintf("<%d chars>", len([]rune(text)))
}
