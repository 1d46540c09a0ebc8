package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/export"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/jobs"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/storage"
)

// JobTypeRenderReceipt renders the payment receipt PDF after a settled
// checkout.
const JobTypeRenderReceipt = "render_receipt"

// ReceiptService renders payment receipts to disk and issues signed download
// links for them.
type ReceiptService struct {
	store  *storage.LocalStorage
	pdf    *export.PDFExporter
	signer *storage.SignedURLSigner
	cfg    config.ReceiptsConfig
	logger *zap.Logger
}

// NewReceiptService constructs ReceiptService.
func NewReceiptService(store *storage.LocalStorage, pdf *export.PDFExporter, signer *storage.SignedURLSigner, cfg config.ReceiptsConfig, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{store: store, pdf: pdf, signer: signer, cfg: cfg, logger: logger}
}

// HandleJob processes queued receipt rendering work.
func (s *ReceiptService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeRenderReceipt {
		return fmt.Errorf("unexpected job type %s", job.Type)
	}
	req, ok := job.Payload.(FinalizeRequest)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", job.Type)
	}
	if _, err := s.Render(req); err != nil {
		return err
	}
	return nil
}

// Render produces the receipt PDF and returns its stored path.
func (s *ReceiptService) Render(req FinalizeRequest) (string, error) {
	details := [][2]string{
		{"Reference", req.Reference},
		{"Student", req.Draft.FirstName + " " + req.Draft.LastName},
		{"Email", req.Draft.Email},
		{"Phone", req.Draft.Phone},
		{"Total", "NGN " + strconv.FormatInt(req.Total, 10)},
		{"Date", time.Now().UTC().Format("2006-01-02 15:04")},
	}

	items := export.Dataset{Headers: []string{"Course", "Quantity"}}
	for _, item := range req.Items {
		items.Rows = append(items.Rows, map[string]string{
			"Course":   item.CourseTitle,
			"Quantity": strconv.Itoa(item.Quantity),
		})
	}

	data, err := s.pdf.RenderReceipt("Smarti Payment Receipt", details, items)
	if err != nil {
		return "", fmt.Errorf("render receipt %s: %w", req.Reference, err)
	}

	path := receiptPath(req.Reference)
	if _, err := s.store.Save(path, data); err != nil {
		return "", fmt.Errorf("store receipt %s: %w", req.Reference, err)
	}
	s.logger.Info("receipt rendered", zap.String("reference", req.Reference), zap.String("path", path))
	return path, nil
}

// SignedDownload issues a time-limited download token for a stored receipt.
func (s *ReceiptService) SignedDownload(reference string) (string, time.Time, error) {
	path := receiptPath(reference)
	file, err := s.store.Open(path)
	if err != nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
	}
	file.Close() //nolint:errcheck

	token, expiresAt, err := s.signer.Generate(reference, path)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// Resolve validates a download token and opens the referenced file.
func (s *ReceiptService) Resolve(token string) (*os.File, error) {
	_, path, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.store.Open(path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt no longer available")
	}
	return file, nil
}

// StartCleanup prunes receipts past the signed-URL TTL on a fixed cadence
// until ctx is cancelled.
func (s *ReceiptService) StartCleanup(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.store.CleanupOlderThan(s.cfg.SignedURLTTL)
				if err != nil {
					s.logger.Warn("receipt cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("receipts pruned", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func receiptPath(reference string) string {
	return "receipts/" + reference + ".pdf"
}
