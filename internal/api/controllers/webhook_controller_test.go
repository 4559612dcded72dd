package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tickethub/pkg/utils"
)

type stubWebhookService struct {
	err       error
	payload   []byte
	signature string
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	s.payload = payload
	s.signature = signature
	return s.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func performWebhook(t *testing.T, svc *stubWebhookService, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewWebhookController(quietLogger(), svc)
	router.POST("/webhooks/payment-events", controller.HandlePaymentEvents)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-events", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookAcknowledgesProcessedEvent(t *testing.T) {
	svc := &stubWebhookService{}
	recorder := performWebhook(t, svc, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil || !body["received"] {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
	if string(svc.payload) != `{"id":"evt_1"}` {
		t.Fatalf("body must reach the service unmodified, got %q", svc.payload)
	}
	if svc.signature != "t=1,v1=abc" {
		t.Fatalf("signature header not forwarded: %q", svc.signature)
	}
}

func TestWebhookFallsBackToGenericSignatureHeader(t *testing.T) {
	svc := &stubWebhookService{}
	performWebhook(t, svc, map[string]string{"X-Signature": "sig-x"})

	if svc.signature != "sig-x" {
		t.Fatalf("expected the fallback header, got %q", svc.signature)
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	svc := &stubWebhookService{err: fmt.Errorf("%w: mismatch", utils.ErrInvalidSignature)}
	recorder := performWebhook(t, svc, nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestWebhookReportsMissingSecret(t *testing.T) {
	svc := &stubWebhookService{err: utils.ErrMissingWebhookSecret}
	recorder := performWebhook(t, svc, nil)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
}

func TestWebhookAcknowledgesInternalFailures(t *testing.T) {
	// The service contract is to return nil for internal failures, but the
	// controller must also treat any unrecognized error as acknowledged.
	svc := &stubWebhookService{err: fmt.Errorf("unexpected")}
	recorder := performWebhook(t, svc, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
