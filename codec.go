package keypager

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var _encoder = base64.RawURLEncoding

// ErrDecode is returned for any token that cannot be opened or parsed:
// corrupted, truncated, forged, or produced by a different key.
var ErrDecode = errors.New("cannot decode pagination token")

// TokenCodec turns serialized pagination state into an opaque, text-safe
// token and back.
type TokenCodec interface {
	Seal(plaintext []byte) (string, error)
	Open(token string) ([]byte, error)
}

type CodecMode string

const (
	// CodecModeCBC is AES-256-CBC with a key and IV fixed for the process.
	// Equal payloads always produce equal tokens and tokens carry no
	// integrity tag, so forged or replayed tokens are not detected.
	CodecModeCBC CodecMode = "cbc"
	// CodecModeSealed is XChaCha20-Poly1305 with a random nonce per token.
	CodecModeSealed CodecMode = "sealed"
)

// CodecConfig configures NewTokenCodec. Key and IV are standard base64.
// Missing values are generated once, so tokens stay valid only for the
// lifetime of the process.
type CodecConfig struct {
	Mode CodecMode `mapstructure:"mode"`
	Key  string    `mapstructure:"key"`
	IV   string    `mapstructure:"iv"`
}

// NewTokenCodec builds the codec selected by cfg.Mode. An empty mode means
// CodecModeCBC.
func NewTokenCodec(cfg CodecConfig) (TokenCodec, error) {
	key, err := decodeOrGenerate(cfg.Key, 32)
	if err != nil {
		return nil, fmt.Errorf("cannot build token codec: key: %w", err)
	}

	switch cfg.Mode {
	case CodecModeCBC, "":
		iv, err := decodeOrGenerate(cfg.IV, aes.BlockSize)
		if err != nil {
			return nil, fmt.Errorf("cannot build token codec: iv: %w", err)
		}

		return NewCBCCodec(key, iv)
	case CodecModeSealed:
		return NewSealedCodec(key)
	default:
		return nil, fmt.Errorf("cannot build token codec: unknown mode '%s'", cfg.Mode)
	}
}

func decodeOrGenerate(b64 string, size int) ([]byte, error) {
	if b64 == "" {
		ret := make([]byte, size)
		if _, err := rand.Read(ret); err != nil {
			return nil, err
		}

		return ret, nil
	}

	ret, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(ret) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(ret))
	}

	return ret, nil
}

// CBCCodec encrypts tokens with AES-256-CBC and PKCS#7 padding under a fixed
// key and IV.
type CBCCodec struct {
	block cipher.Block
	iv    []byte
}

func NewCBCCodec(key, iv []byte) (*CBCCodec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-256 requires a 32 byte key, got %d", len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &CBCCodec{block: block, iv: bytes.Clone(iv)}, nil
}

// Seal - implements TokenCodec.
func (c *CBCCodec) Seal(plaintext []byte) (string, error) {
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)

	return _encoder.EncodeToString(out), nil
}

// Open - implements TokenCodec.
func (c *CBCCodec) Open(token string) ([]byte, error) {
	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecode)
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecode)
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecode)
	}
	if !bytes.Equal(data[len(data)-padding:], bytes.Repeat([]byte{byte(padding)}, padding)) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecode)
	}

	return data[:len(data)-padding], nil
}

// SealedCodec encrypts and authenticates tokens with XChaCha20-Poly1305. The
// random nonce is prepended to the ciphertext.
type SealedCodec struct {
	aead cipher.AEAD
}

func NewSealedCodec(key []byte) (*SealedCodec, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	return &SealedCodec{aead: aead}, nil
}

// Seal - implements TokenCodec.
func (c *SealedCodec) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cannot generate nonce: %w", err)
	}

	return _encoder.EncodeToString(c.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open - implements TokenCodec.
func (c *SealedCodec) Open(token string) ([]byte, error) {
	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: token too short", ErrDecode)
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return plaintext, nil
}

var (
	_ TokenCodec = (*CBCCodec)(nil)
	_ TokenCodec = (*SealedCodec)(nil)
)
