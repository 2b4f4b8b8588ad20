package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/internal/notify"
	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

func testConfig(t *testing.T) *appconfig.Config {
	return &appconfig.Config{
		Env:                "test",
		ClinicTimezone:     "Asia/Kolkata",
		IntakeTTL:          30 * time.Minute,
		IntakeCollectTime:  true,
		IntakeCollectDate:  true,
		SlotLockingEnabled: true,
		SlotLockTTL:        5 * time.Second,
		EmailProvider:      "stub",
		UploadDir:          t.TempDir(),
		AdminJWTSecret:     "admin",
		JWTSecret:          "patient",
		ReminderCron:       "0 9 * * *",
		ConsultationFee:    "200",
	}
}

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Discard(), true)
	require.NotNil(t, client)
	defer client.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Discard(), true))
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	if pool := ConnectPostgresPool(context.Background(), "", logging.Discard()); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestBuildEmailSenderFallsBackToStub(t *testing.T) {
	for _, provider := range []string{"", "stub", "sendgrid", "ses"} {
		sender, name := BuildEmailSender(&appconfig.Config{EmailProvider: provider}, nil, logging.Discard())
		assert.Equal(t, "stub", name, provider)
		assert.IsType(t, &notify.StubEmailSender{}, sender)
	}

	sender, name := BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "key"}, nil, logging.Discard())
	assert.Equal(t, "sendgrid", name)
	assert.IsType(t, &notify.SendGridSender{}, sender)
}

func TestBuildBlobStore(t *testing.T) {
	store, err := BuildBlobStore(&appconfig.Config{UploadDir: t.TempDir()}, nil, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStore{}, store)

	_, err = BuildBlobStore(&appconfig.Config{UploadBucket: "rx"}, nil, logging.Discard())
	assert.Error(t, err)

	assert.True(t, NeedsAWS(&appconfig.Config{UploadBucket: "rx"}))
	assert.True(t, NeedsAWS(&appconfig.Config{EmailProvider: "ses"}))
	assert.False(t, NeedsAWS(&appconfig.Config{EmailProvider: "sendgrid"}))
}

func TestBuildInMemoryApp(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	redisClient := BuildRedisClient(context.Background(), cfg, logging.Discard(), true)
	require.NotNil(t, redisClient)
	defer redisClient.Close()

	app, err := Build(context.Background(), cfg, Deps{Redis: redisClient}, logging.Discard())
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Reminders)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acupressure")

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/intake", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, mr.Keys(), "intake sessions live in redis")

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestBuildRejectsBadReminderSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReminderCron = "every day"
	_, err := Build(context.Background(), cfg, Deps{}, logging.Discard())
	assert.Error(t, err)
}
