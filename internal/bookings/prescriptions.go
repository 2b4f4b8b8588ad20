package bookings

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/storage"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// MaxPrescriptionBytes caps a single prescription upload.
const MaxPrescriptionBytes = 10 << 20

var allowedPrescriptionTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// PrescriptionService stores prescription files for bookings.
type PrescriptionService struct {
	bookings Repository
	files    PrescriptionRepository
	blobs    storage.BlobStore
	logger   *logging.Logger
	now      func() time.Time
}

func NewPrescriptionService(bookings Repository, files PrescriptionRepository, blobs storage.BlobStore, logger *logging.Logger) *PrescriptionService {
	if bookings == nil || files == nil || blobs == nil {
		panic("bookings: prescription dependencies required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PrescriptionService{bookings: bookings, files: files, blobs: blobs, logger: logger, now: time.Now}
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	BookingID   uuid.UUID
	AccountID   uuid.UUID
	FileName    string
	Size        int64
	Body        io.Reader
	Description string
}

// Upload validates and stores a prescription. Only the booking's owner may
// upload. Size, name and mime type are captured from the blob itself.
func (p *PrescriptionService) Upload(ctx context.Context, in UploadInput) (*PrescriptionUpload, error) {
	b, err := p.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(in.AccountID) {
		return nil, ErrForbidden
	}
	if in.Size > MaxPrescriptionBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, in.Size)
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	wantType, ok := allowedPrescriptionTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}

	br := bufio.NewReaderSize(in.Body, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("bookings: read upload: %w", err)
	}
	sniffed := http.DetectContentType(head)
	if !strings.HasPrefix(sniffed, wantType) {
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedFile, sniffed)
	}

	id := uuid.New()
	key := fmt.Sprintf("prescriptions/%s/%s%s", b.ID, id, ext)
	counter := &countingReader{r: io.LimitReader(br, MaxPrescriptionBytes+1)}
	if err := p.blobs.Put(ctx, key, counter, in.Size, wantType); err != nil {
		return nil, err
	}
	if counter.n > MaxPrescriptionBytes {
		_ = p.blobs.Delete(ctx, key)
		return nil, fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, MaxPrescriptionBytes)
	}

	rec := &PrescriptionUpload{
		ID:          id,
		BookingID:   b.ID,
		AccountID:   in.AccountID,
		FileName:    filepath.Base(in.FileName),
		ContentType: wantType,
		SizeBytes:   counter.n,
		StorageKey:  key,
		Description: in.Description,
		UploadedAt:  p.now().UTC(),
	}
	if err := p.files.AddPrescription(ctx, rec); err != nil {
		_ = p.blobs.Delete(ctx, key)
		return nil, err
	}
	p.logger.Info("prescription uploaded", "booking_id", b.ID, "upload_id", id, "size", rec.SizeBytes)
	return rec, nil
}

// List returns uploads for a booking the account owns.
func (p *PrescriptionService) List(ctx context.Context, bookingID, accountID uuid.UUID) ([]*PrescriptionUpload, error) {
	b, err := p.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(accountID) {
		return nil, ErrForbidden
	}
	return p.files.ListPrescriptions(ctx, bookingID)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
