package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/internal/money"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

func TestInMemoryListActiveSortsAndFilters(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.Add(Service{Name: "Zeta", IsActive: true})
	repo.Add(Service{Name: "Alpha", IsActive: true})
	repo.Add(Service{Name: "Hidden", IsActive: false})

	services, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Alpha", services[0].Name)
	assert.Equal(t, "Zeta", services[1].Name)
}

func TestGetActiveRejectsInactive(t *testing.T) {
	repo := NewInMemoryRepository()
	inactive := repo.Add(Service{Name: "Retired", IsActive: false})
	active := repo.Add(Service{Name: "Cupping Therapy", IsActive: true, Price: money.MustParse("250")})

	_, err := GetActive(context.Background(), repo, inactive.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = GetActive(context.Background(), repo, 999)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	svc, err := GetActive(context.Background(), repo, active.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), svc.Price.Minor())
}

func TestSeedInMemoryMatchesMigration(t *testing.T) {
	repo := NewInMemoryRepository()
	SeedInMemory(repo)
	services, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 8)
	assert.Equal(t, "Acupressure Therapy", services[0].Name)
	assert.Equal(t, 45, services[0].DurationMinutes)
}

func TestPostgresGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithDB(mock)
	now := time.Now().UTC()
	cols := []string{"id", "name", "description", "duration_minutes", "price_minor", "is_active", "requires_prescription", "created_at", "updated_at"}

	mock.ExpectQuery("SELECT .+ FROM services WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(3), "Massage Therapy", "desc", 60, int64(30000), true, false, now, now))
	svc, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Massage Therapy", svc.Name)
	assert.Equal(t, money.MustParse("300"), svc.Price)

	mock.ExpectQuery("SELECT .+ FROM services WHERE id").
		WithArgs(int64(4)).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.Get(context.Background(), 4)
	assert.True(t, errors.Is(err, ErrServiceNotFound))

	mock.ExpectQuery("SELECT .+ FROM services WHERE is_active").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), "Acupressure Therapy", "", 45, int64(20000), true, false, now, now).
			AddRow(int64(2), "Magnet Therapy", "", 30, int64(15000), true, false, now, now))
	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlerDetails(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := repo.Add(Service{Name: "Magnet Therapy", DurationMinutes: 30, Price: money.MustParse("150"), IsActive: true, Description: "magnets"})
	h := NewHandler(repo, logging.Discard())

	r := chi.NewRouter()
	r.Get("/api/services/{serviceID}", h.Details)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/services/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "150.00", body["price"])
	assert.Equal(t, float64(30), body["duration"])
	assert.Equal(t, float64(svc.ID), body["id"])

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/services/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/services/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
