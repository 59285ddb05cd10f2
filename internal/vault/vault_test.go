package vault

import (
	"errors"
	"testing"
)

// TestVaultRoundTrip проверяет шифрование и расшифровку секрета.
func TestVaultRoundTrip(t *testing.T) {
	v := New()
	if err := v.Unlock("correct horse battery staple"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cipher, err := v.Encrypt("issuer-password-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cipher == "issuer-password-123" {
		t.Fatal("cipher must not equal plaintext")
	}

	plain, err := v.Decrypt(cipher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain != "issuer-password-123" {
		t.Fatalf("unexpected plaintext: %s", plain)
	}
}

// TestVaultLocked проверяет отказ операций на заблокированном хранилище.
func TestVaultLocked(t *testing.T) {
	v := New()

	if _, err := v.Encrypt("secret"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := v.Decrypt("whatever"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := v.Unlock("passcode"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsUnlocked() {
		t.Fatal("expected vault to be unlocked")
	}

	v.Lock()
	if v.IsUnlocked() {
		t.Fatal("expected vault to be locked again")
	}
}

// TestVaultWrongPasscode проверяет ошибку расшифровки чужим ключом.
func TestVaultWrongPasscode(t *testing.T) {
	v := New()
	if err := v.Unlock("first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cipher, err := v.Encrypt("secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Unlock("second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := v.Decrypt(cipher); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

// TestVaultTamperedCipher проверяет ошибку на испорченном шифртексте.
func TestVaultTamperedCipher(t *testing.T) {
	v := New()
	if err := v.Unlock("passcode"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := v.Decrypt("not base64!!!"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
	if _, err := v.Decrypt("c2hvcnQ="); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for short payload, got %v", err)
	}
}
