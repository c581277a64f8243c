package filelink

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher(t *testing.T) {
	tests := []struct {
		cost    int
		wantErr bool
	}{
		{bcrypt.MinCost - 1, true},
		{bcrypt.MinCost, true},
		{MinBcryptCost - 1, true},
		{MinBcryptCost, false},
		{bcrypt.MaxCost, false},
		{bcrypt.MaxCost + 1, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("cost %d", tt.cost), func(t *testing.T) {
			_, err := NewBcryptHasher(tt.cost)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBcryptHasher(%d) error = %v, wantErr %v", tt.cost, err, tt.wantErr)
			}
		})
	}
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	h, err := NewBcryptHasher(DefaultBcryptCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hash, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	cost, err := bcrypt.Cost(hash)
	if err != nil {
		t.Fatalf("bcrypt.Cost() error: %v", err)
	}
	if cost != 12 {
		t.Errorf("cost = %d, want 12", cost)
	}
	if strings.Contains(string(hash), "hunter2") {
		t.Error("hash contains the plaintext")
	}
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h, err := NewBcryptHasher(MinBcryptCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	if string(a) == string(b) {
		t.Error("hashes of the same password should be salted differently")
	}

	tests := []struct {
		name     string
		hash     []byte
		password string
		want     bool
	}{
		{"match", a, "same", true},
		{"match other salt", b, "same", true},
		{"mismatch", a, "Same", false},
		{"empty", a, "", false},
		{"hash as password", a, string(a), false},
		{"malformed hash", []byte("not-a-hash"), "same", false},
		{"nil hash", nil, "same", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Verify(tt.hash, tt.password); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBcryptHasher_LengthLimit(t *testing.T) {
	h, err := NewBcryptHasher(MinBcryptCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := h.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() of 73 bytes expected error")
	}

	hash, err := h.Hash(strings.Repeat("a", 72))
	if err != nil {
		t.Fatalf("Hash() of 72 bytes unexpected error: %v", err)
	}
	if h.Verify(hash, strings.Repeat("a", 73)) {
		t.Error("a longer password must not match its 72 byte prefix")
	}
}
