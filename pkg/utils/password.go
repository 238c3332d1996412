package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// HashToken bcrypts the sha256 digest of a token. Signed tokens are longer
// than the 72 bytes bcrypt accepts.
func HashToken(token string, cost int) (string, error) {
	return HashPassword(digest(token), cost)
}

func CheckToken(token, hashed string) bool {
	return CheckPassword(digest(token), hashed)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
