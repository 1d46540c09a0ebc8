package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/repository"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/export"
)

type attemptLister interface {
	List(ctx context.Context, filter repository.AttemptFilter) ([]models.PaymentAttempt, int, error)
}

// ExportResult carries a rendered export document.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders the payment history as CSV or PDF for the back
// office.
type ExportService struct {
	attempts attemptLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(attempts attemptLister, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{attempts: attempts, csv: csv, pdf: pdf, logger: logger}
}

// ExportPayments renders the filtered payment history in the given format.
func (s *ExportService) ExportPayments(ctx context.Context, format string, filter repository.AttemptFilter) (*ExportResult, error) {
	filter.PageSize = 100
	if filter.Page < 1 {
		filter.Page = 1
	}
	attempts, _, err := s.attempts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}

	data := export.Dataset{
		Headers: []string{"Reference", "Email", "Amount", "Currency", "State", "Polls", "Created"},
	}
	for _, a := range attempts {
		data.Rows = append(data.Rows, map[string]string{
			"Reference": a.Reference,
			"Email":     a.Email,
			"Amount":    strconv.FormatInt(a.Amount, 10),
			"Currency":  a.Currency,
			"State":     string(a.State),
			"Polls":     strconv.Itoa(a.AttemptsMade),
			"Created":   a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "csv", "":
		raw, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Data: raw, ContentType: "text/csv", Filename: fmt.Sprintf("payments-%s.csv", stamp)}, nil
	case "pdf":
		raw, err := s.pdf.Render(data, "Payment History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Data: raw, ContentType: "application/pdf", Filename: fmt.Sprintf("payments-%s.pdf", stamp)}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
