package main

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

func TestConnectWithoutExternalStores(t *testing.T) {
	deps, cleanup, err := connect(context.Background(), &appconfig.Config{Env: "development", EmailProvider: "stub"}, logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cleanup()
	if deps.Pool != nil || deps.Redis != nil || deps.AWS != nil {
		t.Fatalf("expected in-memory fallbacks, got %+v", deps)
	}
}

func TestConnectLoadsAWSForSES(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		Env:                "development",
		EmailProvider:      "ses",
		AWSRegion:          "ap-south-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}
	deps, cleanup, err := connect(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cleanup()
	if deps.AWS == nil || deps.AWS.Region != "ap-south-1" {
		t.Fatalf("expected AWS config, got %+v", deps.AWS)
	}
}
