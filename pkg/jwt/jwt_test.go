package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestJWT_GenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "bodeguero", "stock-ledger-test", 60)
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "bodeguero", role)
}

func TestJWT_TokenExpirado_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", "stock-ledger-test", -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestJWT_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", "stock-ledger-test", 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestJWT_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "user-1", "admin", "x", 60)
	assert.Error(t, err)
	_, _, err = pkgjwt.Parse("", "abc")
	assert.Error(t, err)
}
