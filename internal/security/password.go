package security

import (
	"github.com/dov-vai/PuzzApi/internal/errs"

	"golang.org/x/crypto/bcrypt"
)

type PasswordPolicy struct {
	Cost      int
	MinLength int
}

func HashPassword(plain string, policy *PasswordPolicy) (string, error) {
	minLen := 6
	cost := bcrypt.DefaultCost

	if policy != nil {
		if policy.MinLength > 0 {
			minLen = policy.MinLength
		}
		if policy.Cost > 0 {
			cost = policy.Cost
		}
	}

	if len(plain) < minLen {
		return "", errs.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
