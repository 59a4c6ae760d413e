// Package flowcrypto implements the WhatsApp Flows encrypted envelope: an
// AES-128-GCM session key wrapped with RSA-OAEP-SHA256, a per-request IV,
// and a response encrypted under the same key with every IV bit flipped.
package flowcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/go-faster/errors"
)

// ErrDecryption marks any failure to recover the session key or plaintext
// from a request envelope. Callers treat it as fatal misconfiguration, not
// as user error.
var ErrDecryption = errors.New("envelope decryption failed")

// Envelope is the raw request body as sent by the platform.
type Envelope struct {
	EncryptedFlowData string `json:"encrypted_flow_data"`
	EncryptedAESKey   string `json:"encrypted_aes_key"`
	InitialVector     string `json:"initial_vector"`
}

// ParseEnvelope decodes a request body into an Envelope.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "parse envelope")
	}
	if env.EncryptedFlowData == "" || env.EncryptedAESKey == "" || env.InitialVector == "" {
		return nil, errors.New("parse envelope: missing fields")
	}
	return &env, nil
}

// DecryptRequest recovers the session key and IV from the envelope and
// decrypts the flow data. The returned key and IV must be threaded to the
// paired EncryptResponse call so the response round-trips with the same
// session keying as the request.
func DecryptRequest(env *Envelope, priv *rsa.PrivateKey) (key, iv, plaintext []byte, err error) {
	wrappedKey, err := base64.StdEncoding.DecodeString(env.EncryptedAESKey)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "aes key base64")
	}
	iv, err = base64.StdEncoding.DecodeString(env.InitialVector)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "iv base64")
	}
	data, err := base64.StdEncoding.DecodeString(env.EncryptedFlowData)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "flow data base64")
	}

	key, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrappedKey, nil)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "unwrap session key")
	}

	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "session cipher")
	}

	// The GCM tag is appended to the ciphertext, which is exactly the layout
	// cipher.AEAD.Open expects.
	plaintext, err = aead.Open(nil, iv, data, nil)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrDecryption, "open flow data")
	}
	return key, iv, plaintext, nil
}

// EncryptResponse encrypts a response message under the request's session
// key. Per the platform contract the response IV is the request IV with all
// bits inverted, and the body is the base64 of ciphertext||tag.
func EncryptResponse(plaintext, key, iv []byte) (string, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return "", errors.Wrap(err, "session cipher")
	}

	flipped := make([]byte, len(iv))
	for i, b := range iv {
		flipped[i] = b ^ 0xFF
	}

	sealed := aead.Seal(nil, flipped, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// newGCM builds an AES-GCM AEAD for the session key. The platform uses
// 16-byte IVs, so the nonce size follows the IV rather than the GCM default.
func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}
