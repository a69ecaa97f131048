package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gtank/cryptopasta"
)

const minPassphrase = 12

// deriveKeys stretches one passphrase into independent encryption and
// signing keys.
func deriveKeys(passphrase string) (enc, sig *[32]byte, err error) {
	if len(passphrase) < minPassphrase {
		return nil, nil, fmt.Errorf("passphrase too short, want at least %d chars", minPassphrase)
	}
	e := sha256.Sum256([]byte("cardledger.enc:" + passphrase))
	s := sha256.Sum256([]byte("cardledger.sig:" + passphrase))
	return &e, &s, nil
}

// Seal encrypts plaintext and appends an HMAC signature, returning a
// printable blob.
func Seal(plaintext []byte, passphrase string) (string, error) {
	enc, sig, err := deriveKeys(passphrase)
	if err != nil {
		return "", err
	}

	cyphertext, err := cryptopasta.Encrypt(plaintext, enc)
	if err != nil {
		return "", err
	}
	signature := cryptopasta.GenerateHMAC(cyphertext, sig)

	return fmt.Sprintf(
		"%s.%s",
		base64.RawURLEncoding.EncodeToString(cyphertext),
		base64.RawURLEncoding.EncodeToString(signature),
	), nil
}

// Open is the inverse of Seal: it checks the HMAC and decrypts, failing on
// any tampering or a wrong passphrase.
func Open(sealed, passphrase string) ([]byte, error) {
	enc, sig, err := deriveKeys(passphrase)
	if err != nil {
		return nil, err
	}

	bits := strings.SplitN(sealed, ".", 2)
	if len(bits) != 2 {
		return nil, fmt.Errorf("sealed blob invalid")
	}

	cypher, err := base64.RawURLEncoding.DecodeString(bits[0])
	if err != nil {
		return nil, err
	}
	signature, err := base64.RawURLEncoding.DecodeString(bits[1])
	if err != nil {
		return nil, err
	}

	if !cryptopasta.CheckHMAC(cypher, signature, sig) {
		return nil, fmt.Errorf("signature validation failed")
	}
	return cryptopasta.Decrypt(cypher, enc)
}
