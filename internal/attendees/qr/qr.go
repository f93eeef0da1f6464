// Package qr issues the encrypted check-in passes printed on attendee badges.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidToken = errors.New("invalid pass token")

// Claims is what a pass carries.
type Claims struct {
	AttendeeID string `json:"aid"`
	OrderID    string `json:"oid"`
}

type Generator struct {
	aead cipher.AEAD
	size int
}

func NewGenerator(secret string) (*Generator, error) {
	key := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Generator{aead: aead, size: 256}, nil
}

// Token seals the claims into a URL-safe string.
func (g *Generator) Token(c Claims) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (g *Generator) Parse(token string) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < g.aead.NonceSize() {
		return nil, ErrInvalidToken
	}

	nonce, sealed := raw[:g.aead.NonceSize()], raw[g.aead.NonceSize():]
	data, err := g.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var c Claims
	if err := json.Unmarshal(data, &c); err != nil || c.AttendeeID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// PNG renders a QR code for the claims' token.
func (g *Generator) PNG(c Claims) ([]byte, error) {
	token, err := g.Token(c)
	if err != nil {
		return nil, fmt.Errorf("seal pass: %w", err)
	}
	return qrcode.Encode(token, qrcode.Medium, g.size)
}
