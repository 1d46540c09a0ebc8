package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(config.UpstreamConfig{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	return client, srv
}

func TestClientInitPayment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments/init", r.URL.Path)

		var req InitPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jane@example.com", req.Email)
		assert.Equal(t, int64(35000), req.Amount)
		assert.Equal(t, "NGN", req.Currency)

		json.NewEncoder(w).Encode(map[string]string{
			"authorization_url": "https://checkout.example.com/abc",
			"reference":         "enroll_123",
		})
	})

	resp, err := client.InitPayment(context.Background(), InitPaymentRequest{
		Email:    "jane@example.com",
		Amount:   35000,
		Currency: "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/abc", resp.AuthorizationURL)
	assert.Equal(t, "enroll_123", resp.Reference)
}

func TestClientInitPaymentIncompleteResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"reference": "enroll_123"})
	})

	_, err := client.InitPayment(context.Background(), InitPaymentRequest{Email: "a@b.c", Amount: 100})
	require.Error(t, err)
}

func TestClientVerifyPayment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/verify", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "enroll_123", req["reference"])
		json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
	})

	status, err := client.VerifyPayment(context.Background(), "enroll_123")
	require.NoError(t, err)
	assert.Equal(t, "completed", status)
}

func TestClientFetchCourseLenientFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/courses/c1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "Data Analytics",
			"fee":  15000,
		})
	})

	course, err := client.FetchCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
	assert.Equal(t, "Data Analytics", course.Title)
	assert.Equal(t, int64(15000), course.Price)
}

func TestClientFetchCourseUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FetchCourse(context.Background(), "c1")
	require.Error(t, err)
}

func TestClientSubmitEnrollment(t *testing.T) {
	var received map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/enrollments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.SubmitEnrollment(context.Background(), EnrollmentSubmission{
		FirstName:        "Jane",
		LastName:         "Doe",
		Email:            "jane@example.com",
		Phone:            "+2348000000000",
		TotalAmount:      35000,
		PaymentReference: "enroll_123",
		PaymentStatus:    "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, "enroll_123", received["paymentReference"])
	assert.Equal(t, "completed", received["paymentStatus"])
}

func TestClientSubscribeNewsletterDefaultsStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/newsletter/subscription/subscribe", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{})
	})

	status, err := client.SubscribeNewsletter(context.Background(), "Jane", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "subscribed", status)
}
