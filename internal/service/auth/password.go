package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"feedkeep/internal/domain/entity"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations matches the original implementation's cost factor;
// stored alongside the hash so it can be raised later without
// invalidating existing password hashes.
const pbkdf2Iterations = 600_000

const pbkdf2KeyLen = 32

// HashPassword derives a PBKDF2-SHA256 hash and encodes it as
// "pbkdf2_sha256${iterations}${salt-b64}${hash-b64}", the same
// self-describing format the original Python implementation stores.
func HashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("pbkdf2_sha256$%d$%s$%s",
		pbkdf2Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// ValidatePassword checks password length against the configured
// MIN_PASSWORD_LENGTH/MAX_PASSWORD_LENGTH bounds.
func ValidatePassword(password string, minLen, maxLen int) error {
	n := len(password)
	if n < minLen {
		return &entity.InvalidPasswordError{Reason: "too short"}
	}
	if n > maxLen {
		return &entity.InvalidPasswordError{Reason: "too long"}
	}
	return nil
}

// VerifyPassword reports whether password matches encodedHash, using a
// constant-time comparison of the derived key. Returns
// entity.InvalidCredentialsError on mismatch or a malformed hash.
func VerifyPassword(password, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 4 || parts[0] != "pbkdf2_sha256" {
		return &entity.InvalidCredentialsError{}
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return &entity.InvalidCredentialsError{}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return &entity.InvalidCredentialsError{}
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return &entity.InvalidCredentialsError{}
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return &entity.InvalidCredentialsError{}
	}
	return nil
}
