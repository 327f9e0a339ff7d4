package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/application/sales"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/memory"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/pdf"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/sms"
	apphttp "github.com/jhoicas/FichesVente-api/internal/interfaces/http"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// App completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type testServer struct {
	app   *fiber.App
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	st := memory.NewStore()
	ledger := inventory.NewStockLedger(memory.NewTxRunner(st), st.StockItems(), st.StockTransactions(), log)
	renderer := pdf.NewRenderer("test")
	userUC := auth.NewUserUseCase(st.Users(), log)
	authUC := auth.NewAuthUseCase(st.Users(), sms.NewLogSender(log),
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
		auth.SMSConfig{CodeTTL: 5 * time.Minute, MaxAttempts: 3}, log)

	created, err := userUC.Bootstrap(context.Background(), dto.CreateUserRequest{
		Username: "admin", Password: "secret123", FirstName: "Awa", LastName: "Diop", Email: "admin@example.com", Role: "admin",
	})
	require.NoError(t, err)
	require.True(t, created)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		UserUC:    userUC,
		Ledger:    ledger,
		Lifecycle: sales.NewSaleLifecycle(ledger, st.Sales(), log),
		Tickets:   sales.NewTicketUseCase(st.Sales(), renderer, "http://ventes.test"),
		ReportUC:  report.NewReportUseCase(st.Sales(), st.Reports(), renderer, "http://ventes.test", log),
		Exporter:  report.NewCSVExporter(st.Sales(), ledger),
		JWTSecret: testJWTSecret,
		StoreName: "memory",
		Log:       log,
	})
	srv := &testServer{app: app}

	resp, body := srv.do(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: "admin", Password: "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	srv.token = login.Token
	return srv
}

func (s *testServer) do(t *testing.T, method, path string, in any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

func (s *testServer) createItem(t *testing.T, name string, onHand int) dto.StockItemResponse {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/stock", map[string]any{
		"name": name, "on_hand": onHand, "baseline": onHand, "alert_threshold": 2,
		"unit": "UNIT", "unit_price": 2500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.StockItemResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func saleBody(product string, qty int) map[string]any {
	return map[string]any{
		"customer_phone":   "77 123 45 67",
		"delivery_address": "Plateau, Dakar",
		"courier":          "Moussa",
		"payment_method":   "ORANGE",
		"items": []map[string]any{
			{"product_name": product, "quantity": qty, "unit_price": 2500, "unit": "UNIT"},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "memory")
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	srv := newTestServer(t)
	srv.token = ""
	resp, body := srv.do(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: "admin", Password: "mala"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "UNAUTHORIZED")
}

func TestMe_DevuelveUsuarioDelToken(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "admin", me.Username)
}

func TestVenta_FaltaDeStockListaTodasLasLineas(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Riz", 5)

	in := saleBody("Riz", 10)
	in["items"] = append(in["items"].([]map[string]any),
		map[string]any{"product_name": "Inconnu", "quantity": 1, "unit_price": 100, "unit": "UNIT"})
	resp, body := srv.do(t, http.MethodPost, "/api/sales", in)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	var er struct {
		Code    string `json:"code"`
		Details []struct {
			ProductName string `json:"product_name"`
			Requested   int    `json:"requested"`
			Available   int    `json:"available"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "STOCK_SHORTFALL", er.Code)
	require.Len(t, er.Details, 2)
	assert.Equal(t, 5, er.Details[0].Available)
	assert.Equal(t, 0, er.Details[1].Available)

	// Nada se descontó.
	_, body = srv.do(t, http.MethodGet, "/api/stock/"+item.ID, nil)
	var got dto.StockItemResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 5, got.OnHand)
}

func TestVenta_CicloCompleto(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Riz", 5)

	resp, body := srv.do(t, http.MethodPost, "/api/sales", saleBody("riz", 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))
	assert.Equal(t, "ACTIVE", sale.Status)
	assert.Equal(t, "7500", sale.Total.String())

	_, body = srv.do(t, http.MethodGet, "/api/stock/"+item.ID, nil)
	var got dto.StockItemResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 2, got.OnHand)
	assert.Equal(t, "LOW", got.Level)

	// Anular restaura el stock; una segunda anulación es transición inválida.
	resp, _ = srv.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = srv.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_TRANSITION")

	_, body = srv.do(t, http.MethodGet, "/api/stock/"+item.ID, nil)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 5, got.OnHand)

	// Auditoría coherente tras venta + anulación.
	resp, body = srv.do(t, http.MethodGet, "/api/stock/"+item.ID+"/audit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var audit dto.StockAuditResponse
	require.NoError(t, json.Unmarshal(body, &audit))
	assert.True(t, audit.Consistent)
	assert.Equal(t, 3, audit.TotalIn)
	assert.Equal(t, 3, audit.TotalOut)
}

func TestVenta_ValidadaQuedaBloqueada(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Huile", 10)

	_, body := srv.do(t, http.MethodPost, "/api/sales", saleBody("Huile", 1))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	resp, _ := srv.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = srv.do(t, http.MethodPut, "/api/sales/"+sale.ID, map[string]any{"courier": "Ibrahima"})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Contains(t, string(body), "SALE_LOCKED")

	resp, _ = srv.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil)
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
}

func TestVenta_EditarLineasEsValidacion(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Sucre", 10)

	_, body := srv.do(t, http.MethodPost, "/api/sales", saleBody("Sucre", 1))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	resp, body := srv.do(t, http.MethodPut, "/api/sales/"+sale.ID, map[string]any{
		"items": []map[string]any{{"product_name": "Sucre", "quantity": 2, "unit_price": 2500}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestVenta_TicketPDF(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Mil", 4)

	_, body := srv.do(t, http.MethodPost, "/api/sales", saleBody("Mil", 2))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	resp, body := srv.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/ticket.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "fiche_"+sale.Number+".pdf")
	assert.Equal(t, "%PDF", string(body[:4]))
}

func TestVenta_NoEncontrada(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/api/sales/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestVentas_FiltroFechaInvalido(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := srv.do(t, http.MethodGet, "/api/sales?from=14/03/2026", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStock_AjusteSalidaMayorQueStock(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Farine", 3)

	resp, body := srv.do(t, http.MethodPost, "/api/stock/"+item.ID+"/adjust", dto.AdjustStockRequest{Kind: "out", Quantity: 4})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	resp, body = srv.do(t, http.MethodPost, "/api/stock/"+item.ID+"/adjust", dto.AdjustStockRequest{Kind: "in", Quantity: 4, Reason: "Livraison"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got dto.StockItemResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 7, got.OnHand)
}

func TestStock_OnHandNoEditableEnUpdate(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Sel", 3)

	resp, body := srv.do(t, http.MethodPut, "/api/stock/"+item.ID, map[string]any{"on_hand": 100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "on_hand")
}

func TestStock_NombreDuplicado(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Oignon", 3)

	resp, body := srv.do(t, http.MethodPost, "/api/stock", map[string]any{
		"name": "  OIGNON ", "on_hand": 1, "baseline": 1, "alert_threshold": 0, "unit": "KG", "unit_price": 500,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "DUPLICATE")
}

func TestStock_Disponibilidad(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Lait", 3)

	resp, body := srv.do(t, http.MethodGet, "/api/stock/availability?name=lait&quantity=4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(body, &a))
	assert.False(t, a.Available)
	assert.Equal(t, 3, a.OnHand)
}

func TestStock_ExportCSV(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Café", 3)

	resp, body := srv.do(t, http.MethodGet, "/api/stock/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, string(body), "Café")
}

func TestUsuarios_OperadorSinAdminNoGestiona(t *testing.T) {
	srv := newTestServer(t)
	srv.token = tokenForRole(t, "user")[len("Bearer "):]

	resp, _ := srv.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/stock", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodGet, "/api/sales?status=DELETED", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUsuarios_NoSePuedeBorrarElUltimoAdmin(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodPost, "/api/users", dto.CreateUserRequest{
		Username: "moussa", Password: "secret123", Email: "moussa@example.com", Role: "user",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	_, body = srv.do(t, http.MethodGet, "/api/users", nil)
	var users []dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &users))
	var adminID string
	for _, u := range users {
		if u.Role == "admin" {
			adminID = u.ID
		}
	}
	require.NotEmpty(t, adminID)

	resp, body = srv.do(t, http.MethodPost, "/api/users/"+adminID+"/toggle-active", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "LAST_ADMIN")
}

func TestReportes_GenerarYDescargar(t *testing.T) {
	srv := newTestServer(t)
	srv.createItem(t, "Riz", 10)
	_, _ = srv.do(t, http.MethodPost, "/api/sales", saleBody("Riz", 2))

	resp, body := srv.do(t, http.MethodPost, "/api/reports", dto.GenerateReportRequest{Period: "daily"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var rep dto.ReportResponse
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, "DAILY", rep.Period)
	assert.Equal(t, 1, rep.SaleCount)
	assert.Equal(t, "5000", rep.TotalRevenue.String())

	resp, body = srv.do(t, http.MethodGet, "/api/reports/"+rep.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF", string(body[:4]))

	resp, _ = srv.do(t, http.MethodGet, "/api/reports/charts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReportes_PeriodoInvalido(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodPost, "/api/reports", dto.GenerateReportRequest{Period: "WEEKLY"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "period")
}
