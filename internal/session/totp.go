package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTP produces an RFC 6238 code from a base32 secret. Secrets as
// short as 1 byte are accepted per spec.
func GenerateTOTP(base32Secret string) (string, error) {
	if len(base32Secret) == 0 {
		return "", fmt.Errorf("session: empty TOTP secret")
	}
	code, err := totp.GenerateCode(base32Secret, time.Now())
	if err != nil {
		return "", fmt.Errorf("session: generate TOTP: %w", err)
	}
	return code, nil
}

var totpChallengeKeywords = []string{
	"verification code", "authenticator", "two-factor", "2fa",
	"one-time password", "enter code",
}

// IsTOTPChallenge reports whether html carries one of the documented TOTP
// challenge keywords.
func IsTOTPChallenge(html string) bool {
	lower := strings.ToLower(html)
	for _, kw := range totpChallengeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
