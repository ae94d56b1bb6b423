package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrHashingFailed = errors.New("secret hashing failed")

// SecretHasher hashes short-lived secrets such as OTP codes
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hashed, secret string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher using bcrypt. Out of range costs use the default.
func NewBcryptHasher(cost int) SecretHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashed, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
}
