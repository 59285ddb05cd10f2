package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrLocked  = errors.New("vault is locked")
	ErrDecrypt = errors.New("invalid cipher or wrong key")
)

const nonceSize = 24

// Vault хранит ключ шифрования учетных данных, выведенный из пасскода.
// Пока Unlock не вызван, шифрование и расшифровка недоступны.
type Vault struct {
	mu  sync.RWMutex
	key *[32]byte
}

// New создает заблокированное хранилище.
func New() *Vault {
	return &Vault{}
}

// Unlock выводит ключ из пасскода и открывает хранилище.
func (v *Vault) Unlock(passcode string) error {
	if passcode == "" {
		return errors.New("passcode is required")
	}

	sum := blake2b.Sum256([]byte(passcode))

	v.mu.Lock()
	defer v.mu.Unlock()

	v.key = &sum
	return nil
}

// Lock сбрасывает ключ и блокирует хранилище.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.key = nil
}

// IsUnlocked сообщает, открыто ли хранилище.
func (v *Vault) IsUnlocked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.key != nil
}

// Encrypt шифрует секрет и возвращает base64 от nonce||cipher.
func (v *Vault) Encrypt(secret string) (string, error) {
	v.mu.RLock()
	key := v.key
	v.mu.RUnlock()

	if key == nil {
		return "", ErrLocked
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nonce[:], []byte(secret), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает base64-строку, созданную Encrypt.
func (v *Vault) Decrypt(cipher string) (string, error) {
	v.mu.RLock()
	key := v.key
	v.mu.RUnlock()

	if key == nil {
		return "", ErrLocked
	}

	combined, err := base64.StdEncoding.DecodeString(cipher)
	if err != nil {
		return "", ErrDecrypt
	}

	if len(combined) < nonceSize {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], combined[:nonceSize])

	opened, ok := secretbox.Open(nil, combined[nonceSize:], &nonce, key)
	if !ok {
		return "", ErrDecrypt
	}

	return string(opened), nil
}
