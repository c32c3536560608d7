package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/billing-reconciliation/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

var operador = pkgjwt.Identity{UserID: "u-1", CompanyID: "co-1", Role: "cartera"}

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, operador, "billing-test", 60)
	require.NoError(t, err)

	id, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, operador, id)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, operador, "billing-test", -1)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, operador, "billing-test", 60)
	require.NoError(t, err)
	_, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", operador, "x", 1)
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)
	_, err = pkgjwt.Parse("", "a.b.c")
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)
}
