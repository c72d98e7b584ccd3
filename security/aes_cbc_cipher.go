package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-r25live/core"
)

const (
	keySize   = 32
	delimiter = "||"
)

// AESCBCCipher encrypts with AES-256-CBC and PKCS#7 padding. The encoded
// form is base64(base64(ciphertext) + "||" + iv), where iv is raw bytes.
type AESCBCCipher struct {
	random io.Reader
}

type Option func(*AESCBCCipher)

// WithRandom overrides the source used for keys and IVs.
func WithRandom(reader io.Reader) Option {
	return func(c *AESCBCCipher) {
		if reader != nil {
			c.random = reader
		}
	}
}

func NewAESCBCCipher(opts ...Option) *AESCBCCipher {
	c := &AESCBCCipher{random: rand.Reader}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func (c *AESCBCCipher) GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(c.reader(), key); err != nil {
		return "", cipherError(err, "key generation failed")
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (c *AESCBCCipher) Encrypt(plaintext string, key string) (string, error) {
	block, err := newBlock(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.reader(), iv); err != nil {
		return "", cipherError(err, "iv generation failed")
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	sealed := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(sealed, padded)

	inner := base64.StdEncoding.EncodeToString(sealed) + delimiter + string(iv)
	return base64.StdEncoding.EncodeToString([]byte(inner)), nil
}

func (c *AESCBCCipher) Decrypt(encoded string, key string) (string, error) {
	block, err := newBlock(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", cipherError(err, "decode payload")
	}
	text, iv, found := bytes.Cut(raw, []byte(delimiter))
	if !found {
		return "", cipherError(nil, "payload is missing the iv delimiter")
	}
	if len(iv) != aes.BlockSize {
		return "", cipherError(nil, fmt.Sprintf("iv must be %d bytes, got %d", aes.BlockSize, len(iv)))
	}
	sealed, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return "", cipherError(err, "decode ciphertext")
	}
	if len(sealed) == 0 || len(sealed)%aes.BlockSize != 0 {
		return "", cipherError(nil, "ciphertext is not a multiple of the block size")
	}

	plain := make([]byte, len(sealed))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, sealed)
	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func (c *AESCBCCipher) reader() io.Reader {
	if c == nil || c.random == nil {
		return rand.Reader
	}
	return c.random
}

func newBlock(key string) (cipher.Block, error) {
	material, err := base64.StdEncoding.DecodeString(strings.TrimSpace(key))
	if err != nil {
		return nil, cipherError(err, "decode key")
	}
	if len(material) != keySize {
		return nil, cipherError(nil, fmt.Sprintf("key must be %d bytes, got %d", keySize, len(material)))
	}
	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, cipherError(err, "create cipher")
	}
	return block, nil
}

func pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, cipherError(nil, "empty plaintext block")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, cipherError(nil, "invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, cipherError(nil, "invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}

func cipherError(source error, message string) *goerrors.Error {
	message = "security: " + message
	if source == nil {
		return goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorCipherInvalid)
	}
	return goerrors.Wrap(source, goerrors.CategoryBadInput, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCipherInvalid)
}

var _ core.Cipher = (*AESCBCCipher)(nil)
