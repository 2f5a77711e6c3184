package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/garnizeh/jobly/internal/auth"
	"github.com/garnizeh/jobly/pkg/apperr"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}
	if cost, err := bcrypt.Cost([]byte(hash)); err != nil || cost != bcrypt.MinCost {
		t.Fatalf("cost: got %d err=%v", cost, err)
	}
	if !h.Compare(hash, "hunter2") {
		t.Fatalf("expected match")
	}
	if h.Compare(hash, "hunter3") {
		t.Fatalf("expected mismatch")
	}
	if h.CompareMissing("hunter2") {
		t.Fatalf("missing user must never match")
	}
}

func TestHasher_PasswordLength(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"AtLimit", strings.Repeat("a", auth.MaxPasswordBytes), false},
		{"TooLong", strings.Repeat("a", 80), true},
		// 25 runes, 75 bytes
		{"MultibyteTooLong", strings.Repeat("€", 25), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Hash(tc.password)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
