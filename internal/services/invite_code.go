package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// InviteCodeAlphabet omits look-alike characters (0/O, 1/I/L).
const InviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// InviteCodeLength is the number of characters in a generated code.
const InviteCodeLength = 6

const maxInviteCodeAttempts = 10

// GenerateInviteCode returns a random code over InviteCodeAlphabet.
func GenerateInviteCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(InviteCodeAlphabet)))
	for i := 0; i < InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		b.WriteByte(InviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode uppercases a typed code and strips separators.
func NormalizeInviteCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, code)
}

// GenerateUniqueInviteCode draws codes until exists reports one as free.
func GenerateUniqueInviteCode(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free invite code after %d attempts", maxInviteCodeAttempts)
}
