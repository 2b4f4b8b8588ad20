package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

type fakeS3 struct {
	objects map[string][]byte
	lastCT  string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.lastCT = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestCleanKey(t *testing.T) {
	k, err := CleanKey("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", k)

	k, err = CleanKey(`prescriptions\a\b.pdf`)
	require.NoError(t, err)
	assert.Equal(t, "prescriptions/a/b.pdf", k)

	_, err = CleanKey("")
	assert.Error(t, err)
}

func TestS3StoreRoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewS3Store(fake, "uploads", logging.Discard())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "prescriptions/x.pdf", strings.NewReader("pdf"), 3, "application/pdf"))
	assert.Equal(t, "application/pdf", fake.lastCT)

	rc, err := store.Get(ctx, "prescriptions/x.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, store.Delete(ctx, "prescriptions/x.pdf"))
	_, err = store.Get(ctx, "prescriptions/x.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/b/c.png", strings.NewReader("png-bytes"), 9, "image/png"))
	rc, err := store.Get(ctx, "a/b/c.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "a/b/c.png"))
	_, err = store.Get(ctx, "a/b/c.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "a/b/c.png"))
}
