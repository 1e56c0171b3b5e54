package mockapi

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Passwords are pre-hashed with sha256 so bcrypt never sees more than 72 bytes
type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], h.cost)
	return string(hash), err
}

func (h bcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
