package app

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"dashboard/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a password into its stored form and checks it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher is the default hasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ChecksumHasher reproduces the 31-multiplier rolling checksum used by
// existing demo data. It is not a password hash and is only selectable for
// compatibility.
type ChecksumHasher struct{}

func (ChecksumHasher) Hash(password string) (string, error) {
	return strconv.Itoa(int(checksum(password))), nil
}

func (h ChecksumHasher) Verify(hash, password string) bool {
	got, _ := h.Hash(password)
	return ConstantTimeCompare(got, hash)
}

// checksum folds the UTF-16 code units of s into a wrapping 32-bit value.
func checksum(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (PasswordHasher, error) {
	switch name {
	case "", "bcrypt":
		return BcryptHasher{}, nil
	case "checksum":
		return ChecksumHasher{}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// Password policy messages.
const (
	MsgPasswordTooShort  = "密碼長度至少 8 個字符"
	MsgPasswordNoUpper   = "密碼必須包含大寫字母"
	MsgPasswordNoLower   = "密碼必須包含小寫字母"
	MsgPasswordNoDigit   = "密碼必須包含數字"
	MsgPasswordNoSpecial = "密碼必須包含特殊字符"
)

// ValidatePassword checks pw against the password policy. It returns a
// *domain.ValidationError listing every violated rule.
func ValidatePassword(pw string) error {
	var problems []string
	if utf8.RuneCountInString(pw) < 8 {
		problems = append(problems, MsgPasswordTooShort)
	}
	if !strings.ContainsFunc(pw, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		problems = append(problems, MsgPasswordNoUpper)
	}
	if !strings.ContainsFunc(pw, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		problems = append(problems, MsgPasswordNoLower)
	}
	if !strings.ContainsFunc(pw, func(r rune) bool { return r >= '0' && r <= '9' }) {
		problems = append(problems, MsgPasswordNoDigit)
	}
	if !strings.ContainsAny(pw, specialChars) {
		problems = append(problems, MsgPasswordNoSpecial)
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

// GeneratePassword returns a random password that satisfies the policy.
func GeneratePassword() (string, error) {
	groups := []struct {
		set string
		n   int
	}{
		{"ABCDEFGHJKLMNPQRSTUVWXYZ", 2},
		{"abcdefghijkmnopqrstuvwxyz", 2},
		{"23456789", 2},
		{"!@#$%^&*", 1},
		{"ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789", 5},
	}
	var b strings.Builder
	for _, g := range groups {
		for range g.n {
			i, err := rand.Int(rand.Reader, big.NewInt(int64(len(g.set))))
			if err != nil {
				return "", err
			}
			b.WriteByte(g.set[i.Int64()])
		}
	}
	return b.String(), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
