package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateServiceSecrets generates the two secrets the editor needs: the JWT
// validation secret shared with the platform auth service, and the bearer
// token for route-persistence calls.
func GenerateServiceSecrets() (jwtSecret, serviceToken string, err error) {
	jwtSecret, err = GenerateSecret(32) // 256-bit
	if err != nil {
		return "", "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	serviceToken, err = GenerateSecret(32) // 256-bit
	if err != nil {
		return "", "", fmt.Errorf("failed to generate service token: %w", err)
	}

	return jwtSecret, serviceToken, nil
}
