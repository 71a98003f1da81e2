package security_test

import (
	"testing"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := security.VerifyPassword("irrelevant", "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA"); err == nil {
		t.Fatal("expected error for zero parameters")
	}
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	cfg := config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

	first, err := security.HashPassword("learnbydoing", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := security.HashPassword("learnbydoing", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts")
	}
	if _, err := security.HashPassword("", cfg); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordRejectsOtherVersions(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "$argon2id$v=16$m=8,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"); err == nil {
		t.Fatal("expected error for unsupported argon2 version")
	}
	if _, err := security.VerifyPassword("irrelevant", "$argon2i$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"); err == nil {
		t.Fatal("expected error for non-id variant")
	}
}

func TestNeedsRehash(t *testing.T) {
	cheap := config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("learnbydoing", cheap)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if security.NeedsRehash(hash, cheap) {
		t.Fatal("hash produced with current params should not need a rehash")
	}

	costlier := cheap
	costlier.ArgonTime = 2
	if !security.NeedsRehash(hash, costlier) {
		t.Fatal("expected rehash after raising time cost")
	}
	if !security.NeedsRehash("garbage", cheap) {
		t.Fatal("expected rehash for malformed hash")
	}
}
