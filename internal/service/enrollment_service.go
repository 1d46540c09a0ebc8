package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/gateway"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/jobs"
)

// DraftFieldErrors maps form field names to human-readable messages. The
// selected-courses requirement reports under the "skillType" key, which is
// what the enrollment form labels that section.
type DraftFieldErrors map[string]string

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type courseCatalog interface {
	Course(ctx context.Context, id string) (*models.Course, error)
}

type profileStore interface {
	Get(ctx context.Context, sessionID string) (*models.ContactProfile, error)
	Save(ctx context.Context, sessionID string, profile models.ContactProfile) error
	Delete(ctx context.Context, sessionID string) error
}

type enrollmentSubmitter interface {
	SubmitEnrollment(ctx context.Context, sub gateway.EnrollmentSubmission) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// FinalizeRequest carries everything needed to record a settled enrollment.
type FinalizeRequest struct {
	SessionID string
	Draft     models.EnrollmentDraft
	Items     []models.SelectedItem
	Total     int64
	Reference string
}

// EnrollmentService owns the enrollment form rules: draft validation, order
// totals and the post-payment finalization step.
type EnrollmentService struct {
	catalog   courseCatalog
	profiles  profileStore
	submitter enrollmentSubmitter
	queue     jobEnqueuer
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. queue may be nil when
// receipt rendering is disabled.
func NewEnrollmentService(catalog courseCatalog, profiles profileStore, submitter enrollmentSubmitter, queue jobEnqueuer, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{catalog: catalog, profiles: profiles, submitter: submitter, queue: queue, logger: logger}
}

// ValidateDraft checks a draft and returns one message per offending field.
// An empty map means the draft is valid. Pure: same draft, same result.
func (s *EnrollmentService) ValidateDraft(draft models.EnrollmentDraft) DraftFieldErrors {
	errs := DraftFieldErrors{}

	if strings.TrimSpace(draft.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if strings.TrimSpace(draft.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	if strings.TrimSpace(draft.Phone) == "" {
		errs["phone"] = "Phone number is required"
	}

	email := strings.TrimSpace(draft.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !emailShape.MatchString(email):
		errs["email"] = "Enter a valid email address"
	}

	if countSelected(draft.Quantities) == 0 {
		errs["skillType"] = "Select at least one course"
	}

	return errs
}

func countSelected(quantities map[string]int) int {
	n := 0
	for _, qty := range quantities {
		if qty > 0 {
			n++
		}
	}
	return n
}

// Total sums quantity times unit price over the selected courses. A course
// whose price is absent from the lookup contributes zero, so the total stays
// defined while the catalog is still loading.
func (s *EnrollmentService) Total(quantities map[string]int, prices map[string]int64) int64 {
	var total int64
	for id, qty := range quantities {
		if qty <= 0 {
			continue
		}
		total += int64(qty) * prices[id]
	}
	return total
}

// PricedItems resolves the draft's selections against the catalog and returns
// the line items plus the order total. Unlike Total, which tolerates missing
// prices for display, checkout must not initiate a payment for an amount the
// catalog cannot back: any selected course without a positive price fails
// with ErrUnpricedCourse.
func (s *EnrollmentService) PricedItems(ctx context.Context, draft models.EnrollmentDraft) ([]models.SelectedItem, int64, error) {
	ids := make([]string, 0, len(draft.Quantities))
	for id, qty := range draft.Quantities {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	items := make([]models.SelectedItem, 0, len(ids))
	var total int64
	for _, id := range ids {
		course, err := s.catalog.Course(ctx, id)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrUnpricedCourse.Code, appErrors.ErrUnpricedCourse.Status, "course "+id+" could not be priced")
		}
		if course.Price <= 0 {
			return nil, 0, appErrors.Clone(appErrors.ErrUnpricedCourse, "course "+course.Title+" has no price yet")
		}
		qty := draft.Quantities[id]
		items = append(items, models.SelectedItem{CourseID: course.ID, CourseTitle: course.Title, Quantity: qty})
		total += int64(qty) * course.Price
	}
	return items, total, nil
}

// Finalize records the settled enrollment with the core API. There is no
// automatic retry: the payment is already confirmed, and a duplicate
// submission would double-enroll, so failures surface to the caller intact.
func (s *EnrollmentService) Finalize(ctx context.Context, req FinalizeRequest) error {
	sub := gateway.EnrollmentSubmission{
		FirstName:        strings.TrimSpace(req.Draft.FirstName),
		LastName:         strings.TrimSpace(req.Draft.LastName),
		Email:            strings.TrimSpace(req.Draft.Email),
		Phone:            strings.TrimSpace(req.Draft.Phone),
		CourseItems:      req.Items,
		TotalAmount:      req.Total,
		PaymentReference: req.Reference,
		PaymentStatus:    "completed",
	}
	if err := s.submitter.SubmitEnrollment(ctx, sub); err != nil {
		return appErrors.Wrap(err, "ENROLLMENT_SUBMIT_FAILED", appErrors.ErrInternal.Status, "payment confirmed but the enrollment record could not be saved")
	}

	if req.Draft.Remember && s.profiles != nil {
		profile := models.ContactProfile{
			FirstName: sub.FirstName,
			LastName:  sub.LastName,
			Email:     sub.Email,
			Phone:     sub.Phone,
		}
		if err := s.profiles.Save(ctx, req.SessionID, profile); err != nil {
			s.logger.Warn("failed to remember contact details", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	if s.queue != nil {
		job := jobs.Job{ID: req.Reference, Type: JobTypeRenderReceipt, Payload: req}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to queue receipt rendering", zap.String("reference", req.Reference), zap.Error(err))
		}
	}

	return nil
}

// Profile returns the remembered contact details for a session.
func (s *EnrollmentService) Profile(ctx context.Context, sessionID string) (*models.ContactProfile, error) {
	profile, err := s.profiles.Get(ctx, sessionID)
	if err != nil {
		if err == appErrors.ErrCacheMiss {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load remembered details")
	}
	return profile, nil
}

// SaveProfile stores contact details for a session.
func (s *EnrollmentService) SaveProfile(ctx context.Context, sessionID string, profile models.ContactProfile) error {
	if err := s.profiles.Save(ctx, sessionID, profile); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save contact details")
	}
	return nil
}

// ForgetProfile drops the remembered contact details for a session.
func (s *EnrollmentService) ForgetProfile(ctx context.Context, sessionID string) error {
	if err := s.profiles.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to forget contact details")
	}
	return nil
}
