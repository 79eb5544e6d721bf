package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption errors.
var (
	ErrWrongPassword = errors.New("wrong password or corrupted key file")
	ErrShortCipher   = errors.New("encrypted data too short")
)

// SaltSize is the Argon2id salt length in bytes.
const SaltSize = 16

// Layout: salt(16) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const headerSize = SaltSize + 4 + 4 + 1

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id parameters used for key files.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt seals data under password with Argon2id and XChaCha20-Poly1305.
// The KDF parameters travel in the header so Decrypt needs only the
// password.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	header := make([]byte, 0, headerSize+len(nonce))
	header = append(header, salt...)
	header = binary.LittleEndian.AppendUint32(header, params.Memory)
	header = binary.LittleEndian.AppendUint32(header, params.Iterations)
	header = append(header, params.Parallelism)
	header = append(header, nonce...)

	// The header is authenticated so KDF parameters cannot be swapped.
	ad := append([]byte(nil), header[:headerSize]...)
	return aead.Seal(header, nonce, data, ad), nil
}

// Decrypt opens data sealed by Encrypt.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	if min := headerSize + nonceSize + chacha20poly1305.Overhead; len(encrypted) < min {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrShortCipher, len(encrypted), min)
	}

	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[SaltSize+4:]),
		Parallelism: encrypted[SaltSize+8],
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("%w: bad kdf parameters", ErrWrongPassword)
	}

	key := deriveKey(password, encrypted[:SaltSize], params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := encrypted[headerSize : headerSize+nonceSize]
	plaintext, err := aead.Open(nil, nonce, encrypted[headerSize+nonceSize:], encrypted[:headerSize])
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
