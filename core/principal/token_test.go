package principal

import (
	"testing"
	"time"
)

func TestTokenManager(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	env := newTestEnv(t)
	adm := createTestAdmin(t, env, "Admin", "admin@test.cd", RoleSuper, "ktm", true, true)

	validSession, err := env.tokens.MakeSessionToken(adm)
	if err != nil {
		t.Fatalf("MakeSessionToken() error = %v", err)
	}
	validReset, err := env.tokens.MakeResetToken(adm)
	if err != nil {
		t.Fatalf("MakeResetToken() error = %v", err)
	}

	// mint an already-expired reset token
	nowFunc = func() time.Time { return time.Now().Add(-(env.conf.Server.ResetTokenDelta + time.Minute)) }
	expiredReset, err := env.tokens.MakeResetToken(adm)
	if err != nil {
		t.Fatalf("MakeResetToken() error = %v", err)
	}
	nowFunc = time.Now

	t.Run("session token round trip", func(t *testing.T) {
		claims, err := env.tokens.VerifySessionToken(validSession)
		if err != nil {
			t.Fatalf("VerifySessionToken() error = %v", err)
		}
		if claims.Subject != adm.ID {
			t.Errorf("claims.Subject = %q; want %q", claims.Subject, adm.ID)
		}
		if claims.Role != RoleSuper {
			t.Errorf("claims.Role = %q; want %q", claims.Role, RoleSuper)
		}
	})

	tests := []struct {
		name    string
		verify  func(string) (*Claims, error)
		token   string
		wantErr error
	}{
		{name: "no token", verify: env.tokens.VerifySessionToken, wantErr: ErrNoToken},
		{name: "garbage token", verify: env.tokens.VerifySessionToken, token: "lmaooolol", wantErr: ErrInvalidToken},
		{name: "reset token is not a session token", verify: env.tokens.VerifySessionToken, token: validReset, wantErr: ErrInvalidToken},
		{name: "session token is not a reset token", verify: env.tokens.VerifyResetToken, token: validSession, wantErr: ErrInvalidToken},
		{name: "expired reset token", verify: env.tokens.VerifyResetToken, token: expiredReset, wantErr: ErrTokenExpired},
		{name: "valid reset token", verify: env.tokens.VerifyResetToken, token: validReset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.verify(tt.token); err != tt.wantErr {
				t.Errorf("verify error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
