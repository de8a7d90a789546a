package security

import (
	"testing"
	"time"
)

func TestSignAndParseUserToken(t *testing.T) {
	token, err := SignUserToken("test-secret", time.Hour, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("SignUserToken returned error: %v", err)
	}

	claims, errParse := ParseUserToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("ParseUserToken returned error: %v", errParse)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user id user-1, got %q", claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Fatalf("expected email a@example.com, got %q", claims.Email)
	}
}

func TestParseUserTokenWrongSecret(t *testing.T) {
	token, err := SignUserToken("secret-a", time.Hour, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("SignUserToken returned error: %v", err)
	}
	if _, errParse := ParseUserToken("secret-b", token); errParse == nil {
		t.Fatalf("token signed with another secret was accepted")
	}
}

func TestParseUserTokenExpired(t *testing.T) {
	token, err := SignUserToken("test-secret", -time.Minute, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("SignUserToken returned error: %v", err)
	}
	if _, errParse := ParseUserToken("test-secret", token); errParse == nil {
		t.Fatalf("expired token was accepted")
	}
}

func TestParseUserTokenGarbage(t *testing.T) {
	if _, err := ParseUserToken("test-secret", "not.a.token"); err == nil {
		t.Fatalf("garbage token was accepted")
	}
	if _, err := ParseUserToken("test-secret", ""); err == nil {
		t.Fatalf("empty token was accepted")
	}
}

func TestParseUserTokenMissingIdentity(t *testing.T) {
	token, err := SignUserToken("test-secret", time.Hour, "", "a@example.com")
	if err != nil {
		t.Fatalf("SignUserToken returned error: %v", err)
	}
	if _, errParse := ParseUserToken("test-secret", token); errParse == nil {
		t.Fatalf("token without a user id was accepted")
	}
}
