//go:build integration

package store_test

import (
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/uuid"

	"github.com/ndlib/fragments/store"
	"github.com/ndlib/fragments/store/storetest"
)

// These tests need running services. For example
//
//	docker run -p 9000:9000 minio/minio server /data
//	docker run -p 6379:6379 redis
//
// and then `go test -tags=integration ./store`.

func TestS3Conformance(t *testing.T) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_ENDPOINT not set")
	}
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), ""),
	})
	if err != nil {
		t.Fatal(err)
	}
	prefix := "test-" + uuid.NewString() + "/"
	storetest.Conformance(t, store.NewS3(os.Getenv("S3_BUCKET"), prefix, sess))
}

func TestRedisConformance(t *testing.T) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := store.NewRedis(addr, "test-"+uuid.NewString()+":")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	storetest.Conformance(t, s)
	storetest.Stress(t, s, 5, 20)
}
