package hashing

import (
	"errors"
	"strings"
	"testing"
)

// testParams keep key derivation fast; production costs are exercised only
// through DefaultParams validation.
var testParams = Params{Time: 1, Memory: 8, Threads: 1, KeyLen: 16, SaltLen: 8}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(testParams)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Errorf("unexpected hash prefix: %q", encoded)
	}
	if !h.Verify(encoded, "correct horse battery staple") {
		t.Error("verify rejected correct password")
	}
	if h.Verify(encoded, "wrong password") {
		t.Error("verify accepted wrong password")
	}
}

func TestHashNonDeterministic(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ (fresh salt)")
	}
	if !h.Verify(first, "same password") || !h.Verify(second, "same password") {
		t.Error("both hashes should verify against the original password")
	}
}

func TestHashRejectsBadLengths(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash(""); !errors.Is(err, ErrPasswordLength) {
		t.Errorf("empty password: err = %v, want ErrPasswordLength", err)
	}
	if _, err := h.Hash(strings.Repeat("p", MaxPasswordLen+1)); !errors.Is(err, ErrPasswordLength) {
		t.Errorf("oversized password: err = %v, want ErrPasswordLength", err)
	}
	if _, err := h.Hash(strings.Repeat("p", MaxPasswordLen)); err != nil {
		t.Errorf("max-length password: err = %v, want nil", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	h := newTestHasher(t)

	malformed := []string{
		"",
		"not a hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8,t=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdHNhbHQ$!!!",
	}
	for _, enc := range malformed {
		if h.Verify(enc, "password") {
			t.Errorf("Verify(%q) = true, want false", enc)
		}
	}
	if h.Verify("anything", "") {
		t.Error("empty password should never verify")
	}
}

func TestNeedsRehash(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h.NeedsRehash(encoded) {
		t.Error("fresh hash should not need rehash")
	}

	stronger, err := New(Params{Time: 2, Memory: 16, Threads: 1, KeyLen: 16, SaltLen: 8})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if !stronger.NeedsRehash(encoded) {
		t.Error("hash made with weaker costs should need rehash")
	}
	if !h.NeedsRehash("garbage") {
		t.Error("malformed hash should report needing rehash")
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	bad := []Params{
		{Time: 0, Memory: 8, Threads: 1, KeyLen: 16, SaltLen: 8},
		{Time: 1, Memory: 8, Threads: 0, KeyLen: 16, SaltLen: 8},
		{Time: 1, Memory: 7, Threads: 1, KeyLen: 16, SaltLen: 8},
		{Time: 1, Memory: 8, Threads: 2, KeyLen: 16, SaltLen: 8}, // memory < 8*threads
		{Time: 1, Memory: 8, Threads: 1, KeyLen: 15, SaltLen: 8},
		{Time: 1, Memory: 8, Threads: 1, KeyLen: 16, SaltLen: 7},
	}
	for i, p := range bad {
		if _, err := New(p); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("case %d: err = %v, want ErrInvalidParams", i, err)
		}
	}
	if _, err := New(DefaultParams()); err != nil {
		t.Errorf("DefaultParams should validate: %v", err)
	}
}

func TestVerifyAcrossParamChange(t *testing.T) {
	// Old hashes stay verifiable after costs are raised, because the costs
	// used to create them are read back out of the encoded string.
	old := newTestHasher(t)
	encoded, err := old.Hash("migrating password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	current, err := New(Params{Time: 3, Memory: 32, Threads: 2, KeyLen: 32, SaltLen: 16})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if !current.Verify(encoded, "migrating password") {
		t.Error("hash made under old params should still verify")
	}
}
