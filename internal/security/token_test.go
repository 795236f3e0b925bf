package security

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", "user-1", "sess-1", "dev-1", "admin", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "sess-1" || claims.DeviceID != "dev-1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	token, err := GenerateAccessToken("secret", "user-1", "sess-1", "dev-1", "user", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(token, "other-secret"); err == nil {
		t.Error("token signed with a different secret was accepted")
	}

	expired, err := GenerateAccessToken("secret", "user-1", "sess-1", "dev-1", "user", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(expired, "secret"); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestRefreshTokenHashMatches(t *testing.T) {
	token, hash, err := GenerateRefreshToken(0)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty refresh token")
	}
	if string(HashRefreshToken(token)) != string(hash) {
		t.Error("stored hash does not match the issued token")
	}
}
