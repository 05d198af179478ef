package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// otpClaims is embedded in the JWT that backs an OTP value. The jti claim
// is what makes two OTPs minted in the same second distinct; chunkservers
// never verify the signature (spec.md §4.1's OTP table is a local,
// pushed-to allowlist, not a bearer-token verifier), so claims carry no
// authorization payload beyond an expiry and an opaque identity.
type otpClaims struct {
	jwt.RegisteredClaims
}

// OtpMinter mints the OTP strings Master.Authenticate hands to clients.
// An OTP is a signed, self-describing JWT so its expiry can be read back
// without a side table on the minting side; chunkservers are handed the
// expiry directly via RegisterOtp and never parse the token themselves.
type OtpMinter struct {
	secret []byte
}

func NewOtpMinter(secret []byte) *OtpMinter {
	return &OtpMinter{secret: secret}
}

// Mint returns a new OTP string valid until now+duration, and that expiry.
func (m *OtpMinter) Mint(duration time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(duration)

	claims := otpClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("mint otp: %w", err)
	}
	return signed, expiresAt, nil
}
