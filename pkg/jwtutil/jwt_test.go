package jwtutil

import (
	"testing"

	"github.com/johanandu/selfstoragejandu/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("cus_abc123", "renter@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "cus_abc123" {
		t.Errorf("UserID = %q, want cus_abc123", claims.UserID)
	}
	if claims.Email != "renter@example.com" {
		t.Errorf("Email = %q, want renter@example.com", claims.Email)
	}
}

func TestValidateToken_WrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("cus_abc123", "renter@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted a token signed with a different key")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	if _, err := ValidateToken("not-a-jwt"); err == nil {
		t.Error("ValidateToken accepted a malformed token")
	}
}
