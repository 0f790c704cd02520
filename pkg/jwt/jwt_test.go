package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessToken(t *testing.T) {
	m := NewManager("secret")

	token, err := m.GenerateAccessToken("c1", "ana@example.com", RoleCustomer, time.Minute)
	require.NoError(t, err)

	claims, err := m.ValidateTyped(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.UserID)
	assert.Equal(t, RoleCustomer, claims.Role)

	_, err = m.ValidateTyped(token, TokenTypeService)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewManager("secret")

	foreign, err := NewManager("other").GenerateAccessToken("c1", "", RoleCustomer, time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.Error(t, err)

	expired, err := m.GenerateAccessToken("c1", "", RoleCustomer, -time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.Error(t, err)
}

func TestManager_ServiceToken(t *testing.T) {
	m := NewManager("secret")

	token, err := m.GenerateServiceToken("order-service", time.Minute)
	require.NoError(t, err)

	claims, err := m.ValidateTyped(token, TokenTypeService)
	require.NoError(t, err)
	assert.Equal(t, RoleSystem, claims.Role)
}
