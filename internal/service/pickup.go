package service

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/theplant/luhn"
	"golang.org/x/crypto/nacl/secretbox"
)

// Pickup codes are six random digits followed by a Luhn check digit.
const (
	pickupCodeBody    = 6
	pickupCodeLen     = pickupCodeBody + 1
	MaxPickupAttempts = 5
)

var (
	ErrPickupCodeMalformed = errors.New("pickup code is malformed")
	ErrPickupCodeMismatch  = errors.New("pickup code does not match")
	ErrPickupCodeLocked    = errors.New("too many failed pickup code attempts")
	ErrPickupCodeMissing   = errors.New("order has no pickup code")
	errPickupCodeDecrypt   = errors.New("pickup code could not be decrypted")
)

// GeneratePickupCode returns a fresh seven digit code with a valid check digit.
func GeneratePickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate pickup code: %w", err)
	}
	body := fmt.Sprintf("%0*d", pickupCodeBody, n.Int64())
	return withCheckDigit(body)
}

func withCheckDigit(body string) (string, error) {
	for d := 0; d <= 9; d++ {
		candidate := body + strconv.Itoa(d)
		v, err := strconv.Atoi(candidate)
		if err != nil {
			return "", err
		}
		if luhn.Valid(v) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no check digit for %q", body)
}

// ValidPickupCodeFormat reports whether code has the right shape and check digit.
func ValidPickupCodeFormat(code string) bool {
	if len(code) != pickupCodeLen {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	v, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return luhn.Valid(v)
}

// PickupSealer encrypts pickup codes at rest with NaCl secretbox.
type PickupSealer struct {
	key [32]byte
}

// NewPickupSealer derives the box key from secret.
func NewPickupSealer(secret string) *PickupSealer {
	return &PickupSealer{key: sha256.Sum256([]byte(secret))}
}

// Seal returns nonce||box.
func (s *PickupSealer) Seal(code string) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(code), &nonce, &s.key), nil
}

func (s *PickupSealer) Open(sealed []byte) (string, error) {
	if len(sealed) < 24+secretbox.Overhead {
		return "", errPickupCodeDecrypt
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	out, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return "", errPickupCodeDecrypt
	}
	return string(out), nil
}
