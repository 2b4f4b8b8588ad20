package bookings

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

func pdfBytes() []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 600)...)
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

func ownedBooking(t *testing.T, f *fixture) (*Booking, uuid.UUID) {
	t.Helper()
	owner := uuid.New()
	in := newBookingAt(testToday.AddDays(1), availability.Clock(17, 0), PaymentCash)
	in.AccountID = &owner
	b, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return b, owner
}

func TestPrescriptionUploadStoresBlobAndMetadata(t *testing.T) {
	f := newFixture(t, nil)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	p := NewPrescriptionService(f.repo, f.repo, blobs, logging.Discard())
	b, owner := ownedBooking(t, f)
	ctx := context.Background()

	content := pngBytes()
	rec, err := p.Upload(ctx, UploadInput{BookingID: b.ID, AccountID: owner, FileName: "scan.PNG", Size: int64(len(content)), Body: bytes.NewReader(content)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, int64(len(content)), rec.SizeBytes)
	assert.Equal(t, "scan.PNG", rec.FileName)

	rc, err := blobs.Get(ctx, rec.StorageKey)
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	list, err := p.List(ctx, b.ID, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func TestPrescriptionUploadRejections(t *testing.T) {
	f := newFixture(t, nil)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	p := NewPrescriptionService(f.repo, f.repo, blobs, logging.Discard())
	b, owner := ownedBooking(t, f)
	ctx := context.Background()

	cases := []struct {
		name    string
		in      UploadInput
		wantErr error
	}{
		{"not owner", UploadInput{BookingID: b.ID, AccountID: uuid.New(), FileName: "a.pdf", Body: bytes.NewReader(pdfBytes())}, ErrForbidden},
		{"unknown booking", UploadInput{BookingID: uuid.New(), AccountID: owner, FileName: "a.pdf", Body: bytes.NewReader(pdfBytes())}, ErrBookingNotFound},
		{"extension", UploadInput{BookingID: b.ID, AccountID: owner, FileName: "a.docx", Body: bytes.NewReader(pdfBytes())}, ErrUnsupportedFile},
		{"content mismatch", UploadInput{BookingID: b.ID, AccountID: owner, FileName: "a.png", Body: bytes.NewReader([]byte("plain text, not an image"))}, ErrUnsupportedFile},
		{"declared too large", UploadInput{BookingID: b.ID, AccountID: owner, FileName: "a.pdf", Size: MaxPrescriptionBytes + 1, Body: bytes.NewReader(pdfBytes())}, ErrFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Upload(ctx, tc.in)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	list, err := p.List(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPrescriptionUploadRejectsOversizedStream(t *testing.T) {
	f := newFixture(t, nil)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	p := NewPrescriptionService(f.repo, f.repo, blobs, logging.Discard())
	b, owner := ownedBooking(t, f)

	body := io.MultiReader(bytes.NewReader(pdfBytes()), io.LimitReader(zeroReader{}, MaxPrescriptionBytes))
	_, err = p.Upload(context.Background(), UploadInput{BookingID: b.ID, AccountID: owner, FileName: "big.pdf", Body: body})
	require.ErrorIs(t, err, ErrFileTooLarge)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
