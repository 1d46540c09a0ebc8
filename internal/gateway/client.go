package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
)

// Client talks to the Smarti core API which owns the course catalog, the
// payment processor integration and enrollment records.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a core API client.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// InitPaymentRequest is the payload for the processor init call. Metadata
// carries the selected courses and the student's contact details so the
// processor dashboard shows what was bought.
type InitPaymentRequest struct {
	Email    string                 `json:"email"`
	Amount   int64                  `json:"amount"`
	Currency string                 `json:"currency"`
	Metadata map[string]interface{} `json:"metadata"`
}

// InitPaymentResponse carries the hosted checkout handle.
type InitPaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// InitPayment asks the core API to initialise a hosted checkout.
func (c *Client) InitPayment(ctx context.Context, req InitPaymentRequest) (*InitPaymentResponse, error) {
	var out InitPaymentResponse
	if err := c.postJSON(ctx, "/payments/init", req, &out); err != nil {
		return nil, fmt.Errorf("init payment: %w", err)
	}
	if out.AuthorizationURL == "" || out.Reference == "" {
		return nil, fmt.Errorf("init payment: incomplete response")
	}
	return &out, nil
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

type verifyResponse struct {
	Status string `json:"status"`
}

// VerifyPayment returns the processor-side status for a payment reference.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (string, error) {
	var out verifyResponse
	if err := c.postJSON(ctx, "/payments/verify", verifyRequest{Reference: reference}, &out); err != nil {
		return "", fmt.Errorf("verify payment: %w", err)
	}
	return out.Status, nil
}

// EnrollmentSubmission finalises an enrollment after settlement.
type EnrollmentSubmission struct {
	FirstName        string                `json:"firstName"`
	LastName         string                `json:"lastName"`
	Email            string                `json:"email"`
	Phone            string                `json:"phone"`
	CourseItems      []models.SelectedItem `json:"courseItems"`
	TotalAmount      int64                 `json:"totalAmount"`
	PaymentReference string                `json:"paymentReference"`
	PaymentStatus    string                `json:"paymentStatus"`
}

// SubmitEnrollment records the enrollment against its settled payment.
func (c *Client) SubmitEnrollment(ctx context.Context, sub EnrollmentSubmission) error {
	if err := c.postJSON(ctx, "/enrollments", sub, nil); err != nil {
		return fmt.Errorf("submit enrollment: %w", err)
	}
	return nil
}

// courseDoc tolerates the loose field naming the core API exposes: `_id` or
// `id`, `title` or `name`, `price` or `fee`.
type courseDoc struct {
	MongoID  string   `json:"_id"`
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Fee      int64    `json:"fee"`
	PriceUSD *float64 `json:"priceUSD"`
}

func (d courseDoc) toCourse(fallbackID string) models.Course {
	course := models.Course{
		ID:       d.MongoID,
		Title:    d.Title,
		Price:    d.Price,
		PriceUSD: d.PriceUSD,
	}
	if course.ID == "" {
		course.ID = d.ID
	}
	if course.ID == "" {
		course.ID = fallbackID
	}
	if course.Title == "" {
		course.Title = d.Name
	}
	if course.Title == "" {
		course.Title = "Course"
	}
	if course.Price == 0 {
		course.Price = d.Fee
	}
	return course
}

// FetchCourse loads a single catalog entry.
func (c *Client) FetchCourse(ctx context.Context, id string) (*models.Course, error) {
	var doc courseDoc
	if err := c.getJSON(ctx, "/courses/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, fmt.Errorf("fetch course %s: %w", id, err)
	}
	course := doc.toCourse(id)
	return &course, nil
}

type courseListResponse struct {
	Courses []courseDoc `json:"courses"`
	Total   int         `json:"total"`
}

// ListCourses loads a catalog page.
func (c *Client) ListCourses(ctx context.Context, page, limit int) ([]models.Course, int, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("limit", fmt.Sprintf("%d", limit))

	var out courseListResponse
	if err := c.getJSON(ctx, "/courses", params, &out); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	courses := make([]models.Course, 0, len(out.Courses))
	for _, doc := range out.Courses {
		courses = append(courses, doc.toCourse(""))
	}
	return courses, out.Total, nil
}

// EnrollmentCounts returns per-course occupancy, optionally filtered by ids.
func (c *Client) EnrollmentCounts(ctx context.Context, ids []string) ([]models.CourseCount, error) {
	params := url.Values{}
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
	}
	var out []models.CourseCount
	if err := c.getJSON(ctx, "/enrollments/counts", params, &out); err != nil {
		return nil, fmt.Errorf("enrollment counts: %w", err)
	}
	return out, nil
}

type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type subscribeResponse struct {
	Status string `json:"status"`
}

// SubscribeNewsletter registers a newsletter signup and reports whether the
// subscription is pending double opt-in.
func (c *Client) SubscribeNewsletter(ctx context.Context, name, email string) (string, error) {
	var out subscribeResponse
	if err := c.postJSON(ctx, "/newsletter/subscription/subscribe", subscribeRequest{Email: email, Name: name}, &out); err != nil {
		return "", fmt.Errorf("newsletter subscribe: %w", err)
	}
	if out.Status == "" {
		return models.NewsletterStatusSubscribed, nil
	}
	return out.Status, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("upstream error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, truncate(respBody, 256))
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
