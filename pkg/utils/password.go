package utils

import (
	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// Argon2id，编码格式 $argon2id$v=19$m=...,t=...,p=...$salt$hash
func HashPasswordArgon2(pw string) (string, error) {
	cfg := argon2.DefaultConfig()
	b, err := cfg.HashEncoded([]byte(pw))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPasswordArgon2(pw, encoded string) bool {
	ok, err := argon2.VerifyEncoded([]byte(pw), []byte(encoded))
	return err == nil && ok
}
