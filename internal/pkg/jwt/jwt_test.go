package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	employeeID := "emp-1"

	token, expiresAt, err := svc.GenerateAccessToken(user.Actor{UserID: "user-1", EmployeeID: &employeeID, Role: user.RoleEmployee})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	actor, err := ActorFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor.UserID)
	assert.Equal(t, user.RoleEmployee, actor.Role)
	require.NotNil(t, actor.EmployeeID)
	assert.Equal(t, "emp-1", *actor.EmployeeID)
}

func TestGenerateAccessToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", time.Hour).GenerateAccessToken(user.Actor{UserID: "u", Role: user.RoleOwner})
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewJWTService("secret-b", time.Hour).JWTAuth(), token)
	assert.Error(t, err)
}

func TestGenerateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour).(*JWTService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken(user.Actor{UserID: "u", Role: user.RoleOwner})
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(svc.JWTAuth(), token)
	assert.Error(t, err)
}

func TestActorFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		wantErr bool
		hasEmp  bool
	}{
		{"manager without employee", map[string]interface{}{"type": "access", "user_id": "u", "role": "manager", "employee_id": nil}, false, false},
		{"employee", map[string]interface{}{"type": "access", "user_id": "u", "role": "employee", "employee_id": "e"}, false, true},
		{"refresh token", map[string]interface{}{"type": "refresh", "user_id": "u", "role": "owner"}, true, false},
		{"missing role", map[string]interface{}{"type": "access", "user_id": "u"}, true, false},
		{"missing user", map[string]interface{}{"type": "access", "role": "owner"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := ActorFromClaims(tt.claims)
			if tt.wantErr {
				assert.ErrorIs(t, err, user.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hasEmp, actor.EmployeeID != nil)
		})
	}
}
