package auth

import (
	"crypto/subtle"
	"fmt"

	"carpool/pkg/utils"
)

// PasswordScheme 口令的存储与校验方式，调用方只依赖这个接口。
//
// plain 与旧系统行为一致：明文存储、明文比较。这是已知弱点，
// 生产环境应切换为 bcrypt 或 argon2。
type PasswordScheme interface {
	Name() string
	Hash(pw string) (string, error)
	Verify(pw, stored string) bool
}

func NewPasswordScheme(name string) (PasswordScheme, error) {
	switch name {
	case "", "plain":
		return plainScheme{}, nil
	case "bcrypt":
		return bcryptScheme{}, nil
	case "argon2":
		return argon2Scheme{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}

type plainScheme struct{}

func (plainScheme) Name() string                   { return "plain" }
func (plainScheme) Hash(pw string) (string, error) { return pw, nil }
func (plainScheme) Verify(pw, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(pw), []byte(stored)) == 1
}

type bcryptScheme struct{}

func (bcryptScheme) Name() string                   { return "bcrypt" }
func (bcryptScheme) Hash(pw string) (string, error) { return utils.HashPassword(pw), nil }
func (bcryptScheme) Verify(pw, stored string) bool  { return utils.CheckPassword(pw, stored) }

type argon2Scheme struct{}

func (argon2Scheme) Name() string                   { return "argon2" }
func (argon2Scheme) Hash(pw string) (string, error) { return utils.HashPasswordArgon2(pw) }
func (argon2Scheme) Verify(pw, stored string) bool  { return utils.CheckPasswordArgon2(pw, stored) }
