package signer

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestSecretFromEnv(t *testing.T) {
	env := map[string]string{SecretEnvVar: "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="}
	getfn := func(k string) string { return env[k] }
	setfn := func(k, v string) error { env[k] = v; return nil }

	secret, err := SecretFromEnv(SecretEnvVar, getfn, setfn)
	if err != nil {
		t.Fatal(err)
	}
	if string(secret) != "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20=" {
		t.Fatalf("Unexpected secret: %v", string(secret))
	}
	if env[SecretEnvVar] != "" {
		t.Fatal("reading the secret should remove it from the environment")
	}

	_, err = SecretFromEnv(SecretEnvVar, getfn, setfn)
	if err == nil {
		t.Fatal("an empty variable should be rejected")
	}

	env[SecretEnvVar] = "short"
	_, err = SecretFromEnv(SecretEnvVar, getfn, setfn)
	if err == nil {
		t.Fatal("a short secret should be rejected")
	}
}

func TestDeriveKey(t *testing.T) {
	root := []byte("root-secret-for-tests")
	a := DeriveKey(root, CookiePurpose)
	b := DeriveKey(root, CookiePurpose)
	if len(a) != 32 {
		t.Fatalf("Derived key should have 32 bytes got %v", len(a))
	}
	if !bytes.Equal(a, b) {
		t.Fatal("Key derivation should be deterministic")
	}
	if bytes.Equal(a, DeriveKey(root, "other-purpose")) {
		t.Fatal("Different purposes should yield different keys")
	}
	if bytes.Equal(a, DeriveKey([]byte("another-root-secret"), CookiePurpose)) {
		t.Fatal("Different roots should yield different keys")
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(a)
	if err != nil {
		t.Fatal(err)
	} else if len(raw) != 32 {
		t.Fatalf("Secret should decode to 32 bytes got %v", len(raw))
	}
	b, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("Two generated secrets should differ")
	}
}
