package security

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, errSign := GenerateToken("secret", 42, "user@example.com", "admin", time.Hour)
	if errSign != nil {
		t.Fatalf("generate token: %v", errSign)
	}

	claims, errParse := ParseToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, errSign := GenerateToken("secret", 1, "a@b.c", "user", time.Hour)
	if errSign != nil {
		t.Fatalf("generate token: %v", errSign)
	}
	if _, errParse := ParseToken("other", token); errParse != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, errSign := GenerateToken("secret", 1, "a@b.c", "user", -time.Minute)
	if errSign != nil {
		t.Fatalf("generate token: %v", errSign)
	}
	if _, errParse := ParseToken("secret", token); errParse != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, errParse := ParseToken("secret", "not-a-token"); errParse != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestRandomUpperTokenShape(t *testing.T) {
	token := RandomUpperToken(6)
	if len(token) != 6 {
		t.Fatalf("expected 6 chars, got %d", len(token))
	}
	for _, r := range token {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("unexpected character %q in token %s", r, token)
		}
	}
	if RandomUpperToken(6) == token && RandomUpperToken(6) == token {
		t.Fatalf("tokens should not repeat: %s", token)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, errHash := HashPassword("hunter2hunter2")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password must not verify")
	}
}
