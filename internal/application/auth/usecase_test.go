package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/memory"
	"github.com/jhoicas/FichesVente-api/pkg/jwt"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

const secret = "secreto-de-pruebas"

// capturingSender guarda el último código enviado.
type capturingSender struct {
	mu    sync.Mutex
	phone string
	code  string
	sent  int
}

func (s *capturingSender) Send(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone = phone
	s.code = message[len(message)-6:]
	s.sent++
	return nil
}

type authFixture struct {
	users  *auth.UserUseCase
	auth   *auth.AuthUseCase
	sender *capturingSender
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	s := memory.NewStore()
	f := &authFixture{sender: &capturingSender{}, now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	f.users = auth.NewUserUseCase(s.Users(), logger.Nop())
	f.auth = auth.NewAuthUseCase(s.Users(), f.sender,
		auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "test"},
		auth.SMSConfig{CodeTTL: 300 * time.Second, MaxAttempts: 3},
		logger.Nop(),
	).WithClock(func() time.Time { return f.now })
	return f
}

func (f *authFixture) createUser(t *testing.T, username, role string, twoFA bool) *dto.UserResponse {
	t.Helper()
	u, err := f.users.Create(context.Background(), dto.CreateUserRequest{
		Username: username, Password: "motdepasse", Email: username + "@fiches.sn",
		Phone: "+221771234567", Role: role, TwoFactorEnabled: twoFA,
	})
	require.NoError(t, err)
	return u
}

// ─── Login ───────────────────────────────────────────────────────────────────

func TestLogin_SinDobleFactorDevuelveToken(t *testing.T) {
	f := newAuthFixture(t)
	created := f.createUser(t, "Awa", entity.RoleAdmin, false)

	resp, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	require.NoError(t, err)
	assert.False(t, resp.RequiresSMS)
	require.NotEmpty(t, resp.Token)

	claims, err := jwt.Parse(secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "Awa", claims.Username)
	assert.Equal(t, entity.RoleAdmin, claims.Role)
}

func TestLogin_CredencialesIncorrectas(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, false)

	_, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "otra-cosa"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.auth.Login(context.Background(), dto.LoginRequest{Username: "nadie", Password: "motdepasse"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "admin", entity.RoleAdmin, false)
	u := f.createUser(t, "awa", entity.RoleUser, false)
	_, err := f.users.ToggleActive(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ─── Verificación SMS ────────────────────────────────────────────────────────

func TestLogin_ConDobleFactorPideCodigo(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, true)

	resp, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	require.NoError(t, err)
	assert.True(t, resp.RequiresSMS)
	assert.Empty(t, resp.Token)
	assert.NotEmpty(t, resp.ChallengeID)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.True(t, strings.HasSuffix(resp.PhoneHint, "4567"))
	assert.Len(t, f.sender.code, 6)
	assert.Equal(t, "+221771234567", f.sender.phone)

	ok, err := f.auth.VerifySMS(context.Background(), dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: f.sender.code})
	require.NoError(t, err)
	assert.NotEmpty(t, ok.Token)

	// el desafío se consume
	_, err = f.auth.VerifySMS(context.Background(), dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: f.sender.code})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifySMS_CodigoExpirado(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, true)
	resp, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	require.NoError(t, err)

	f.now = f.now.Add(301 * time.Second)
	_, err = f.auth.VerifySMS(context.Background(), dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: f.sender.code})
	assert.ErrorIs(t, err, domain.ErrCodeExpired)
}

func TestVerifySMS_TresIntentosBloquean(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, true)
	resp, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	require.NoError(t, err)

	wrong := "000000"
	if f.sender.code == wrong {
		wrong = "111111"
	}
	req := dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: wrong}
	_, err = f.auth.VerifySMS(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrCodeInvalid)
	_, err = f.auth.VerifySMS(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrCodeInvalid)
	_, err = f.auth.VerifySMS(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)

	// bloqueado incluso con el código correcto
	_, err = f.auth.VerifySMS(context.Background(), dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: f.sender.code})
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
}

func TestResendSMS_ReiniciaIntentosYTemporizador(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, true)
	resp, err := f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	require.NoError(t, err)

	f.now = f.now.Add(280 * time.Second)
	_, err = f.auth.ResendSMS(context.Background(), dto.ResendSMSRequest{ChallengeID: resp.ChallengeID})
	require.NoError(t, err)
	assert.Equal(t, 2, f.sender.sent)

	f.now = f.now.Add(200 * time.Second)
	ok, err := f.auth.VerifySMS(context.Background(), dto.VerifySMSRequest{ChallengeID: resp.ChallengeID, Code: f.sender.code})
	require.NoError(t, err)
	assert.NotEmpty(t, ok.Token)
}

// ─── Gestión de usuarios ─────────────────────────────────────────────────────

func TestCreate_Validaciones(t *testing.T) {
	f := newAuthFixture(t)
	cases := []struct {
		name string
		in   dto.CreateUserRequest
	}{
		{"username corto", dto.CreateUserRequest{Username: "aw", Password: "motdepasse", Email: "a@b.sn"}},
		{"password corto", dto.CreateUserRequest{Username: "awa", Password: "12345", Email: "a@b.sn"}},
		{"email sin arroba", dto.CreateUserRequest{Username: "awa", Password: "motdepasse", Email: "awa.sn"}},
		{"rol desconocido", dto.CreateUserRequest{Username: "awa", Password: "motdepasse", Email: "a@b.sn", Role: "root"}},
		{"2FA sin teléfono", dto.CreateUserRequest{Username: "awa", Password: "motdepasse", Email: "a@b.sn", TwoFactorEnabled: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.users.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreate_UsernameDuplicadoSinMayusculas(t *testing.T) {
	f := newAuthFixture(t)
	f.createUser(t, "awa", entity.RoleUser, false)
	_, err := f.users.Create(context.Background(), dto.CreateUserRequest{Username: "AWA", Password: "motdepasse", Email: "x@y.sn"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUltimoAdmin_NoSePuedeBorrarNiDesactivar(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.createUser(t, "admin", entity.RoleAdmin, false)
	f.createUser(t, "awa", entity.RoleUser, false)

	assert.ErrorIs(t, f.users.Delete(context.Background(), admin.ID), domain.ErrLastAdmin)
	_, err := f.users.ToggleActive(context.Background(), admin.ID)
	assert.ErrorIs(t, err, domain.ErrLastAdmin)
	role := entity.RoleUser
	_, err = f.users.Update(context.Background(), admin.ID, dto.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	second := f.createUser(t, "moussa", entity.RoleAdmin, false)
	_, err = f.users.ToggleActive(context.Background(), admin.ID)
	require.NoError(t, err)
	// un admin desactivado sigue contando para el borrado, no para la desactivación
	_, err = f.users.ToggleActive(context.Background(), second.ID)
	assert.ErrorIs(t, err, domain.ErrLastAdmin)
	require.NoError(t, f.users.Delete(context.Background(), second.ID))
}

func TestToggleTwoFactor_ExigeTelefono(t *testing.T) {
	f := newAuthFixture(t)
	u, err := f.users.Create(context.Background(), dto.CreateUserRequest{Username: "awa", Password: "motdepasse", Email: "a@b.sn"})
	require.NoError(t, err)

	_, err = f.users.ToggleTwoFactor(context.Background(), u.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	phone := "+221770000000"
	_, err = f.users.Update(context.Background(), u.ID, dto.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	out, err := f.users.ToggleTwoFactor(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, out.TwoFactorEnabled)
}

func TestUpdate_CambiaPassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.createUser(t, "awa", entity.RoleUser, false)
	pw := "nouveau-mdp"
	_, err := f.users.Update(context.Background(), u.ID, dto.UpdateUserRequest{Password: &pw})
	require.NoError(t, err)

	_, err = f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: "motdepasse"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.auth.Login(context.Background(), dto.LoginRequest{Username: "awa", Password: pw})
	assert.NoError(t, err)
}

func TestBootstrap_SoloConTablaVacia(t *testing.T) {
	f := newAuthFixture(t)
	in := dto.CreateUserRequest{Username: "admin", Password: "changeme", Email: "admin@localhost"}

	created, err := f.users.Bootstrap(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.users.Bootstrap(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := f.users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.RoleAdmin, list[0].Role)
}
