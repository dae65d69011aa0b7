package utils

import (
	"encoding/hex"
	"strings"

	"folio-tracker-service/config"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// GenerateAccessToken generates an opaque access token for a new user.
// The token is shown to the user once; only its hash is persisted.
func GenerateAccessToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// HashAccessToken derives a deterministic Argon2id hash of an access token
// using the configured pepper as salt. Deterministic hashing is required so
// users can be looked up by token hash at login.
func HashAccessToken(token string) string {
	hash := argon2.IDKey([]byte(token), []byte(config.AppConfig.AccessTokenPepper), 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash)
}
