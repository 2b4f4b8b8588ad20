package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

const testAccountHeader = "X-Test-Account"

// withTestAccount stands in for the auth middleware.
func withTestAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(testAccountHeader); raw != "" {
			r = r.WithContext(accounts.WithAccountID(r.Context(), uuid.MustParse(raw)))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(f.svc, NewPrescriptionService(f.repo, f.repo, blobs, logging.Discard()), logging.Discard())
	admin := NewAdminHandler(f.svc, logging.Discard())

	r := chi.NewRouter()
	r.Use(withTestAccount)
	r.Post("/api/bookings", h.Create)
	r.Get("/api/bookings/{bookingID}", h.Get)
	r.Post("/api/bookings/{bookingID}/cancel", h.Cancel)
	r.Post("/api/bookings/{bookingID}/prescriptions", h.UploadPrescription)
	r.Get("/api/bookings/{bookingID}/prescriptions", h.ListPrescriptions)
	r.Get("/api/me/bookings", h.ListMine)
	r.Post("/admin/bookings/actions", admin.BulkAction)
	r.Post("/admin/bookings/{bookingID}/{action}", admin.Apply)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, account uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if account != uuid.Nil {
		req.Header.Set(testAccountHeader, account.String())
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type bookingEnvelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Booking struct {
		ID              uuid.UUID `json:"booking_id"`
		Status          string    `json:"status"`
		PaymentStatus   string    `json:"payment_status"`
		PaymentAmount   string    `json:"payment_amount"`
		AppointmentTime string    `json:"appointment_time"`
		DurationMinutes int       `json:"duration_minutes"`
	} `json:"booking"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) bookingEnvelope {
	t.Helper()
	var env bookingEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func createRequest(date, slot, method string) CreateBookingRequest {
	return CreateBookingRequest{
		ServiceID:       acupressureID,
		AppointmentDate: date,
		AppointmentTime: slot,
		PatientName:     "Asha Rani",
		PatientAge:      34,
		PatientGender:   "Female",
		PatientPhone:    "98765 43210",
		PatientEmail:    "asha@example.com",
		PaymentMethod:   method,
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(1).String(), "10:00", "cash"), uuid.Nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "confirmed", env.Booking.Status)
	assert.Equal(t, "pending", env.Booking.PaymentStatus)
	assert.Equal(t, "200.00", env.Booking.PaymentAmount)
	assert.Equal(t, "10:00", env.Booking.AppointmentTime)
	assert.Equal(t, 45, env.Booking.DurationMinutes)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(1).String(), "10:00", "online"), uuid.Nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Selected time slot is no longer available.", decodeEnvelope(t, rec).Error)
}

func TestCreateBookingEndpointFieldErrors(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)

	req := createRequest("10/03/2025", "25:00", "cash")
	req.PatientEmail = "bad"
	rec := doJSON(t, router, http.MethodPost, "/api/bookings", req, uuid.Nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Fields, "appointment_date")
	assert.Contains(t, env.Fields, "appointment_time")
	assert.Contains(t, env.Fields, "patient_email")

	rec = doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(1).String(), "13:00", "cash"), uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingVisibility(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)
	owner := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(1).String(), "11:00", "online"), owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Booking.ID

	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+id.String(), nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+id.String(), nil, uuid.New())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/bookings/not-a-uuid", nil, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAndListMineEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)
	owner := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(2).String(), "15:30", "cash"), owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Booking.ID

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+id.String()+"/cancel", nil, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+id.String()+"/cancel", nil, uuid.New())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+id.String()+"/cancel", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decodeEnvelope(t, rec).Booking.Status)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+id.String()+"/cancel", nil, owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/me/bookings", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count    int `json:"count"`
		Bookings []struct {
			ID uuid.UUID `json:"booking_id"`
		} `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Bookings[0].ID)
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, newBookingAt(testToday.AddDays(1), availability.Clock(9, 0), PaymentOnline))
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, newBookingAt(testToday.AddDays(1), availability.Clock(9, 30), PaymentOnline))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/admin/bookings/actions",
		map[string]any{"action": "confirm", "booking_ids": []uuid.UUID{a.ID, b.ID}}, uuid.Nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Updated, 2)
	assert.Empty(t, res.Skipped)

	rec = doJSON(t, router, http.MethodPost, "/admin/bookings/actions",
		map[string]any{"action": "teleport", "booking_ids": []uuid.UUID{a.ID}}, uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/bookings/"+a.ID.String()+"/start", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", decodeEnvelope(t, rec).Booking.Status)

	rec = doJSON(t, router, http.MethodPost, "/admin/bookings/"+a.ID.String()+"/no_show", nil, uuid.Nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func multipartUpload(t *testing.T, path, fileName string, content []byte, account uuid.UUID) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("description", "dermatologist note"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(testAccountHeader, account.String())
	return req
}

func TestPrescriptionEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	router := newTestRouter(t, f)
	owner := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", createRequest(testToday.AddDays(1).String(), "16:00", "cash"), owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Booking.ID
	path := "/api/bookings/" + id.String() + "/prescriptions"

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, path, "rx.pdf", pdfBytes(), owner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, path, "rx.exe", pdfBytes(), owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Only PDF"))

	rec = doJSON(t, router, http.MethodGet, path, nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Prescriptions []PrescriptionUpload `json:"prescriptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Prescriptions, 1)
	assert.Equal(t, "rx.pdf", list.Prescriptions[0].FileName)
	assert.Equal(t, "dermatologist note", list.Prescriptions[0].Description)

	rec = doJSON(t, router, http.MethodGet, path, nil, uuid.New())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
