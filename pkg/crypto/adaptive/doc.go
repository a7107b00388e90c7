// Package adaptive seals byte slices with an AEAD chosen for the host:
// AES-256-GCM where the CPU accelerates AES, ChaCha20-Poly1305 elsewhere.
//
// The nonce is generated per call and prepended to the ciphertext, so a
// sealed value carries everything Open needs besides the key and the
// additional data.
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, header)
//	plaintext, err := c.Open(sealed, header)
package adaptive
