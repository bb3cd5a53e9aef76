package security

import (
	"Agora/internal/api/config"
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "unit-test", ExpireHour: 1})

	token, err := GenerateToken(42, []string{"ADMIN"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || len(claims.Roles) != 1 || claims.Roles[0] != "ADMIN" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	sig, err := ExtractSignature(token)
	if err != nil || !strings.HasSuffix(token, sig) {
		t.Fatalf("signature: %q %v", sig, err)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "one"})
	token, err := GenerateToken(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	InitJWT(config.JWTConfig{Secret: "two"})
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
	if _, err := ExtractSignature("a.b"); err == nil {
		t.Fatalf("malformed token should be rejected")
	}
}
