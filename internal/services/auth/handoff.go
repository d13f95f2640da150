package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// handoffWindow bounds how long a signed login payload stays usable.
const handoffWindow = 5 * time.Minute

// ProviderHandoff is the profile the web frontend forwards after finishing
// the OAuth flow with the identity provider. The frontend signs it with the
// shared provider secret so the API can trust the fields.
type ProviderHandoff struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	IssuedAt  int64  `json:"issued_at"`
	Signature string `json:"signature"`
}

func SignProviderHandoff(secret string, handoff ProviderHandoff) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(handoffPayload(handoff)))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyProviderHandoff(secret string, handoff ProviderHandoff, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("provider secret is empty")
	}
	if strings.TrimSpace(handoff.Email) == "" {
		return fmt.Errorf("handoff email is empty: %w", ErrInvalidInput)
	}
	if handoff.IssuedAt <= 0 {
		return fmt.Errorf("handoff issued_at is missing: %w", ErrInvalidInput)
	}

	issued := time.Unix(handoff.IssuedAt, 0)
	if now.Sub(issued) > handoffWindow || issued.Sub(now) > handoffWindow {
		return ErrUnauthorized
	}

	expected := SignProviderHandoff(secret, handoff)
	provided := strings.TrimSpace(handoff.Signature)
	if provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrUnauthorized
	}

	return nil
}

func handoffPayload(handoff ProviderHandoff) string {
	return strings.Join([]string{
		strings.TrimSpace(strings.ToLower(handoff.Email)),
		strings.TrimSpace(handoff.Name),
		strings.TrimSpace(handoff.Image),
		strconv.FormatInt(handoff.IssuedAt, 10),
	}, "\n")
}
