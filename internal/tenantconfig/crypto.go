package tenantconfig

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	dErrors "unify/pkg/domain-errors"
)

const pbkdf2Iterations = 4096

// Cipher encrypts setting values at rest. The scheme uses one process-wide
// key and one fixed IV for every value, so identical plaintexts always
// produce identical ciphertexts. That determinism is relied on by existing
// stored data and is covered by tests; do not switch to a per-value nonce
// without a data migration.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// NewCipher derives the settings key and the fixed IV from a passphrase and
// salt via PBKDF2.
func NewCipher(passphrase, salt string) (*Cipher, error) {
	if passphrase == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "settings passphrase must not be empty")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init settings cipher: %w", err)
	}
	iv := pbkdf2.Key([]byte(passphrase), []byte(salt+"/iv"), pbkdf2Iterations, aes.BlockSize, sha256.New)
	return &Cipher{block: block, iv: iv}, nil
}

// Encrypt returns the base64 ciphertext for a setting value.
func (c *Cipher) Encrypt(plaintext string) string {
	out := make([]byte, len(plaintext))
	cipher.NewCTR(c.block, c.iv).XORKeyStream(out, []byte(plaintext))
	return base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt. A value that cannot be decoded yields a
// decryption-failure error; callers keep the setting with the error marker
// instead of aborting the whole resolve.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDecryptionFailure, "undecodable setting value")
	}
	out := make([]byte, len(raw))
	cipher.NewCTR(c.block, c.iv).XORKeyStream(out, raw)
	return string(out), nil
}
