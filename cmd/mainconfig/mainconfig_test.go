package mainconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
)

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:           "ap-south-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if awsCfg.Region != "ap-south-1" {
		t.Fatalf("region = %q", awsCfg.Region)
	}
	ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(s3.ServiceID, "ap-south-1")
	if err != nil || ep.URL != "http://localhost:4566" {
		t.Fatalf("s3 endpoint = %v, %v", ep, err)
	}
	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint("SQS", "ap-south-1")
	var notFound *aws.EndpointNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected fallthrough for other services, got %v", err)
	}
}
