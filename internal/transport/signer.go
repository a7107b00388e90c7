package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Default signing parameters of the emulated application version.
const (
	DefaultSignatureKey     = "68a04945eb02970e2e8d15266fc256f7295da123e123f44b88f09d594a5902df"
	DefaultSignatureVersion = "4"
)

// Signer produces the signed_body form of a JSON payload.
type Signer struct {
	key     []byte
	version string
}

// NewSigner creates a signer. Empty arguments select the defaults.
func NewSigner(key, version string) Signer {
	if key == "" {
		key = DefaultSignatureKey
	}
	if version == "" {
		version = DefaultSignatureVersion
	}
	return Signer{key: []byte(key), version: version}
}

// Signature returns the hex HMAC-SHA256 of body.
func (s Signer) Signature(body []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign returns the form fields carrying body and its signature.
func (s Signer) Sign(body []byte) url.Values {
	v := url.Values{}
	v.Set("signed_body", s.Signature(body)+"."+string(body))
	v.Set("ig_sig_key_version", s.version)
	return v
}

// Verify checks a signed_body value produced by Sign.
func (s Signer) Verify(signedBody string) ([]byte, bool) {
	if len(signedBody) < sha256.Size*2+1 || signedBody[sha256.Size*2] != '.' {
		return nil, false
	}
	sig, body := signedBody[:sha256.Size*2], []byte(signedBody[sha256.Size*2+1:])
	want := s.Signature(body)
	return body, hmac.Equal([]byte(sig), []byte(want))
}
