package flowcrypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/go-faster/errors"
)

// ParsePrivateKey parses a PEM-encoded RSA private key in PKCS#1 or PKCS#8
// form. Legacy passphrase-encrypted PEM blocks (the format the platform's
// key-generation snippet produces) are decrypted with passphrase first.
func ParsePrivateKey(pemData []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found in private key")
	}

	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy format required by the platform tooling
		var err error
		der, err = x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck
		if err != nil {
			return nil, errors.Wrap(err, "decrypt private key")
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("unsupported private key type %T", parsed)
	}
	return key, nil
}
