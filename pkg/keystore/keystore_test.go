package keystore

import (
	"path/filepath"
	"testing"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestEncryptDecryptMnemonic(t *testing.T) {
	password := "secure-password"

	keyJSON, err := EncryptMnemonicWithParams(testMnemonic, password, LightScryptN, LightScryptP)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}
	if keyJSON.Crypto.Cipher != "aes-256-gcm" {
		t.Errorf("Expected cipher aes-256-gcm, got %s", keyJSON.Crypto.Cipher)
	}

	plaintext, err := DecryptMnemonic(keyJSON, password)
	if err != nil {
		t.Fatalf("Decryption failed: %v", err)
	}
	if plaintext != testMnemonic {
		t.Errorf("Decryption mismatch. Expected %s, got %s", testMnemonic, plaintext)
	}

	if _, err = DecryptMnemonic(keyJSON, "wrong-password"); err != ErrDecrypt {
		t.Errorf("Expected ErrDecrypt with wrong password, got %v", err)
	}
}

func TestOpenFromFile(t *testing.T) {
	password := "123456"
	filename := filepath.Join(t.TempDir(), "wallet.json")

	keyJSON, err := EncryptMnemonicWithParams(testMnemonic, password, LightScryptN, LightScryptP)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}
	if err := keyJSON.SaveToFile(filename); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(filename)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Id != keyJSON.Id {
		t.Errorf("ID mismatch after load")
	}

	decrypted, err := Open(filename, password)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if decrypted != testMnemonic {
		t.Errorf("Content mismatch")
	}
}
