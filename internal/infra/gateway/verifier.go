package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

// HMACVerifier checks hex(HMAC-SHA256(secret, body)) signatures.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	if len(v.secret) == 0 || signature == "" {
		return httperr.ErrInvalidSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return httperr.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return httperr.ErrInvalidSignature
	}
	return nil
}
