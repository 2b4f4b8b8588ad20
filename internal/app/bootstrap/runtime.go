package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/internal/notify"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ConnectPostgresPool opens a pgx pool, or returns nil when databaseURL is
// empty or the database cannot be reached.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildEmailSender picks the provider named by EMAIL_PROVIDER. Misconfigured
// providers fall back to the logging stub.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string) {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender != nil {
			return sender, "sendgrid"
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; using stub")
	case "ses":
		if awsCfg != nil {
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger), "ses"
		}
		logger.Warn("EMAIL_PROVIDER=ses but AWS config unavailable; using stub")
	}
	return notify.NewStubEmailSender(logger), "stub"
}

// BuildBlobStore stores prescriptions in S3 when UPLOAD_BUCKET is set and on
// local disk otherwise.
func BuildBlobStore(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (storage.BlobStore, error) {
	if bucket := strings.TrimSpace(cfg.UploadBucket); bucket != "" {
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: UPLOAD_BUCKET set without AWS config")
		}
		client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
			// LocalStack serves buckets by path.
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		return storage.NewS3Store(client, bucket, logger), nil
	}
	dir := cfg.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: local upload dir: %w", err)
	}
	return store, nil
}

// BuildMetrics creates the booking metrics on a private registry and the
// /metrics handler serving it.
func BuildMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// NeedsAWS reports whether any configured component talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	return strings.TrimSpace(cfg.UploadBucket) != "" || cfg.EmailProvider == "ses"
}
