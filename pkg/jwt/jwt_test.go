package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "awa", "vendeur", "fiches-vente", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "awa", claims.Username)
	assert.Equal(t, "vendeur", claims.Role)
	assert.Equal(t, "fiches-vente", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "awa", "admin", "fiches-vente", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro-secreto", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "awa", "admin", "fiches-vente", -1)
	require.NoError(t, err)

	_, err = jwt.Parse("secreto", token)
	assert.Error(t, err)
}

func TestGenerate_SecretoVacio(t *testing.T) {
	_, err := jwt.Generate("", "u-1", "awa", "admin", "fiches-vente", 5)
	assert.Error(t, err)
}
