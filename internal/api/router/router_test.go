package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	httpmiddleware "github.com/wolfman30/healthcare-booking/internal/http/middleware"
	"github.com/wolfman30/healthcare-booking/internal/intake"
	"github.com/wolfman30/healthcare-booking/internal/payments"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

const adminSecret = "admin-secret"

type testServer struct {
	handler  http.Handler
	settings *settings.Settings
}

func newTestRouter(t *testing.T) *testServer {
	t.Helper()
	logger := logging.Discard()
	cfg := settings.Defaults(nil)

	services := catalog.NewInMemoryRepository()
	catalog.SeedInMemory(services)
	repo := bookings.NewInMemoryRepository()
	svc := bookings.NewService(repo, services, cfg, logger)

	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	prescriptions := bookings.NewPrescriptionService(repo, repo, blobs, logger)

	wizard := intake.NewWizard(intake.NewMemoryStore(intake.DefaultTTL), services, svc, intake.Options{CollectTime: true, CollectDate: true}, logger)
	gateway := payments.NewGateway(cfg.Payment, nil, logger)

	handler := New(&Config{
		Logger:          logger,
		Catalog:         catalog.NewHandler(services, logger),
		Availability:    availability.NewHandler(svc.Checker(), logger),
		Bookings:        bookings.NewHandler(svc, prescriptions, logger),
		AdminBookings:   bookings.NewAdminHandler(svc, logger),
		Intake:          intake.NewHandler(wizard, intake.DefaultTTL, false, logger),
		Payments:        payments.NewHandler(gateway, svc, cfg, logger),
		Webhooks:        payments.NewWebhookHandler(gateway, svc, nil, nil, logger),
		PublicSettings:  settings.NewPublicHandler(cfg),
		Settings:        cfg,
		AccountTokens:   accounts.NewTokenIssuer("patient-secret", time.Hour),
		AdminAuthSecret: adminSecret,
		RateLimitRPS:    100,
		RateLimitBurst:  100,
	})
	return &testServer{handler: handler, settings: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func adminHeader(t *testing.T) http.Header {
	t.Helper()
	claims := httpmiddleware.AdminClaims{
		Role: httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "front-desk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminSecret))
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + signed}}
}

func cashBooking() map[string]any {
	return map[string]any{
		"service_id":       1,
		"appointment_date": time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02"),
		"appointment_time": "10:00",
		"patient_name":     "Asha Rani",
		"patient_age":      34,
		"patient_phone":    "9876543210",
		"patient_email":    "asha@example.com",
		"payment_method":   "cash",
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	rec := newTestRouter(t).do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterPublicReads(t *testing.T) {
	s := newTestRouter(t)

	rec := s.do(t, http.MethodGet, "/api/services", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acupressure")

	rec = s.do(t, http.MethodGet, "/api/services/2", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/time-slots", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/settings/public", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "key_secret")
}

func TestRouterBookingAndAdminFlow(t *testing.T) {
	s := newTestRouter(t)

	rec := s.do(t, http.MethodPost, "/api/bookings", cashBooking(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Booking bookings.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(t, http.MethodGet, "/api/bookings/"+created.Booking.ID.String(), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	path := "/admin/bookings/" + created.Booking.ID.String() + "/confirm"
	rec = s.do(t, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, path, nil, adminHeader(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
}

func TestRouterMaintenanceBlocksMutations(t *testing.T) {
	s := newTestRouter(t)
	s.settings.Site.MaintenanceMode = true

	rec := s.do(t, http.MethodPost, "/api/bookings", cashBooking(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/intake", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/payments/orders", map[string]any{"amount": "200"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), s.settings.Site.MaintenanceMessage)

	rec = s.do(t, http.MethodPost, "/api/payments/verify", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "verify is not blocked by maintenance")

	rec = s.do(t, http.MethodGet, "/api/services", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "reads stay available")
}

func TestRouterAccountRoutes(t *testing.T) {
	s := newTestRouter(t)

	rec := s.do(t, http.MethodGet, "/api/me/bookings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/me/bookings", nil, http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterWebhookMounted(t *testing.T) {
	rec := newTestRouter(t).do(t, http.MethodPost, "/webhooks/razorpay", map[string]any{"event": "payment.captured"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
