/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/httpclient"
	"github.com/acronis/go-crptapi/internal/libinfo"
	"github.com/acronis/go-crptapi/log/logtest"
	"github.com/acronis/go-crptapi/ratelimit"
	"github.com/acronis/go-crptapi/testutil"
)

type receivedRequest struct {
	header http.Header
	body   map[string]interface{}
	at     time.Time
}

type fakeCRPTServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []receivedRequest
	status   int
	respBody string
}

func newFakeCRPTServer(t *testing.T) *fakeCRPTServer {
	t.Helper()
	s := &fakeCRPTServer{status: http.StatusOK, respBody: `{"value":"ok"}`}
	router := chi.NewRouter()
	router.Post(CreateDocumentPath, func(rw http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body map[string]interface{}
		if err = json.Unmarshal(data, &body); err != nil {
			rw.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, receivedRequest{header: r.Header.Clone(), body: body, at: time.Now()})
		status, respBody := s.status, s.respBody
		s.mu.Unlock()
		rw.WriteHeader(status)
		_, _ = rw.Write([]byte(respBody))
	})
	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

func (s *fakeCRPTServer) setResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.respBody = status, body
}

func (s *fakeCRPTServer) received() []receivedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]receivedRequest(nil), s.requests...)
}

type countingAcquirer struct {
	calls atomic.Int32
	err   error
}

func (a *countingAcquirer) Acquire(ctx context.Context) error {
	a.calls.Inc()
	return a.err
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []string
}

func (rt *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	rt.mu.Lock()
	rt.spans = append(rt.spans, name)
	rt.mu.Unlock()
	return rt.Tracer.Start(ctx, name, opts...)
}

func newTestConfig(baseURL string) *Config {
	cfg := NewDefaultConfig()
	cfg.BaseURL = baseURL
	return cfg
}

func makeValidDocument() Document {
	return Document{
		Description:    Description{ParticipantInn: "7701234567"},
		DocID:          "doc-1",
		DocStatus:      "NEW",
		ImportRequest:  true,
		OwnerInn:       "7701234567",
		ParticipantInn: "7701234567",
		ProducerInn:    "770123456789",
		ProductionDate: "2024-01-23",
		ProductionType: "OWN_PRODUCTION",
		Products: []Product{{
			CertificateDocument:       "CONFORMITY_CERTIFICATE",
			CertificateDocumentDate:   "2024-01-20",
			CertificateDocumentNumber: "RU-123",
			OwnerInn:                  "7701234567",
			ProducerInn:               "770123456789",
			ProductionDate:            "2024-01-23",
			TnvedCode:                 "6401100000",
			UitCode:                   "010460043993125621JgXJ5.T",
		}},
		RegDate:   "2024-01-24",
		RegNumber: "R-1",
	}
}

func TestNewClient(t *testing.T) {
	limiter := &countingAcquirer{}

	t.Run("limiter is nil", func(t *testing.T) {
		_, err := NewClient(NewDefaultConfig(), nil, ClientOpts{})
		require.EqualError(t, err, "rate limiter must be specified")
	})

	t.Run("invalid base URL", func(t *testing.T) {
		_, err := NewClient(newTestConfig("ftp://ismp.crpt.ru"), limiter, ClientOpts{})
		require.EqualError(t, err, `invalid base URL "ftp://ismp.crpt.ru": scheme must be http or https`)
	})

	t.Run("metrics enabled without collector", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.HTTPClient.Metrics.Enabled = true
		_, err := NewClient(cfg, limiter, ClientOpts{})
		require.EqualError(t, err, "create http client: metrics are enabled but metrics collector is not specified")
	})

	t.Run("endpoint URL", func(t *testing.T) {
		client, err := NewClient(newTestConfig("https://example.com/"), limiter, ClientOpts{})
		require.NoError(t, err)
		require.Equal(t, "https://example.com"+CreateDocumentPath, client.endpointURL)
	})
}

func TestClient_CreateDocument(t *testing.T) {
	server := newFakeCRPTServer(t)
	limiter := &countingAcquirer{}
	logRecorder := logtest.NewRecorder()
	tracer := &recordingTracer{}
	client, err := NewClient(newTestConfig(server.URL), limiter, ClientOpts{Logger: logRecorder, Tracer: tracer})
	require.NoError(t, err)

	doc := makeValidDocument()
	doc.DocType = "SOMETHING_ELSE"
	require.NoError(t, client.CreateDocument(context.Background(), doc, "c2lnbmF0dXJl"))

	require.Equal(t, int32(1), limiter.calls.Load())
	reqs := server.received()
	require.Len(t, reqs, 1)

	header := reqs[0].header
	require.Equal(t, "application/json", header.Get("Content-Type"))
	require.Equal(t, "c2lnbmF0dXJl", header.Get(SignatureHeader))
	require.Contains(t, header.Get("User-Agent"), DefaultUserAgent)
	require.NotEmpty(t, header.Get(httpclient.RequestIDHeader))

	body := reqs[0].body
	require.Equal(t, DocTypeIntroduceGoods, body["doc_type"])
	require.Equal(t, "doc-1", body["doc_id"])
	require.Equal(t, "NEW", body["doc_status"])
	require.Equal(t, true, body["importRequest"])
	require.Equal(t, "7701234567", body["owner_inn"])
	require.Equal(t, "770123456789", body["producer_inn"])
	require.Equal(t, "2024-01-23", body["production_date"])
	require.Equal(t, map[string]interface{}{"participantInn": "7701234567"}, body["description"])
	products, ok := body["products"].([]interface{})
	require.True(t, ok)
	require.Len(t, products, 1)
	product := products[0].(map[string]interface{})
	require.Equal(t, "6401100000", product["tnved_code"])
	require.Equal(t, "010460043993125621JgXJ5.T", product["uit_code"])
	require.Equal(t, "RU-123", product["certificate_document_number"])

	logEntry, found := logRecorder.FindEntry("document created")
	require.True(t, found)
	docIDField, found := logEntry.FindField("doc_id")
	require.True(t, found)
	require.Equal(t, "doc-1", string(docIDField.Bytes))

	require.Equal(t, []string{"crptapi.CreateDocument"}, tracer.spans)
}

func TestClient_CreateDocument_UnexpectedStatus(t *testing.T) {
	server := newFakeCRPTServer(t)
	server.setResponse(http.StatusBadRequest, `{"error_message":"invalid signature"}`)
	client, err := NewClient(newTestConfig(server.URL), &countingAcquirer{}, ClientOpts{})
	require.NoError(t, err)

	err = client.CreateDocument(context.Background(), makeValidDocument(), "sig")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	var statusErr *UnexpectedStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.Equal(t, `{"error_message":"invalid signature"}`, statusErr.Body)
	require.EqualError(t, err, `unexpected HTTP status code 400: {"error_message":"invalid signature"}`)

	// Non-200 responses are not retried.
	require.Len(t, server.received(), 1)
}

func TestClient_CreateDocument_InvalidInputConsumesNoPermit(t *testing.T) {
	server := newFakeCRPTServer(t)
	limiter := &countingAcquirer{}
	client, err := NewClient(newTestConfig(server.URL), limiter, ClientOpts{})
	require.NoError(t, err)

	doc := makeValidDocument()
	doc.OwnerInn = "123"
	err = client.CreateDocument(context.Background(), doc, "")
	require.ErrorIs(t, err, ErrInvalidDocument)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, []FieldError{
		{Field: "owner_inn", Err: "must be an INN of 10 or 12 digits"},
		{Field: "signature", Err: "signature is required"},
	}, validationErr.Fields)

	require.Equal(t, int32(0), limiter.calls.Load())
	require.Empty(t, server.received())
}

func TestClient_CreateDocument_LimiterShutdown(t *testing.T) {
	server := newFakeCRPTServer(t)
	limiter, err := ratelimit.NewWindowLimiter(time.Hour, 1)
	require.NoError(t, err)
	client, err := NewClient(newTestConfig(server.URL), limiter, ClientOpts{})
	require.NoError(t, err)

	require.NoError(t, client.CreateDocument(context.Background(), makeValidDocument(), "sig"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.CreateDocument(context.Background(), makeValidDocument(), "sig")
	}()
	require.Eventually(t, func() bool { return limiter.Waiting() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, limiter.Shutdown())
	err = testutil.RequireErrorFromChannel(t, errCh, time.Second, "waiting submission was not released by shutdown")
	testutil.RequireErrorIsAny(t, err, []error{ratelimit.ErrShutdown})
	var waitErr *httpclient.RateLimitingWaitError
	require.ErrorAs(t, err, &waitErr)
	require.True(t, waitErr.IsShutdown())

	err = client.CreateDocument(context.Background(), makeValidDocument(), "sig")
	testutil.RequireErrorIsAny(t, err, []error{ratelimit.ErrShutdown})
	require.Len(t, server.received(), 1)
}

func TestClient_CreateDocument_ContextCanceledWhileWaiting(t *testing.T) {
	server := newFakeCRPTServer(t)
	limiter, err := ratelimit.NewWindowLimiter(time.Hour, 1)
	require.NoError(t, err)
	defer func() { _ = limiter.Shutdown() }()
	client, err := NewClient(newTestConfig(server.URL), limiter, ClientOpts{})
	require.NoError(t, err)

	require.NoError(t, client.CreateDocument(context.Background(), makeValidDocument(), "sig"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = client.CreateDocument(ctx, makeValidDocument(), "sig")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 0, limiter.Waiting())
	require.Len(t, server.received(), 1)
}

func TestClient_CreateDocument_QueuedSubmissionOutlivesHTTPTimeout(t *testing.T) {
	const window = 400 * time.Millisecond

	server := newFakeCRPTServer(t)
	limiter, err := ratelimit.NewWindowLimiter(window, 1)
	require.NoError(t, err)
	defer func() { require.NoError(t, limiter.Shutdown()) }()
	cfg := newTestConfig(server.URL)
	cfg.HTTPClient.Timeout = window / 2
	client, err := NewClient(cfg, limiter, ClientOpts{})
	require.NoError(t, err)

	startedAt := time.Now()
	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errCh <- client.CreateDocument(context.Background(), makeValidDocument(), "sig") }()
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, testutil.RequireErrorFromChannel(t, errCh, 2*window))
	}
	require.GreaterOrEqual(t, time.Since(startedAt), cfg.HTTPClient.Timeout)
	require.Len(t, server.received(), 2)
}

func TestClient_CreateDocument_ConcurrentSubmissionsAreRateLimited(t *testing.T) {
	const window = 200 * time.Millisecond
	const capacity = 2
	const submissions = 5

	server := newFakeCRPTServer(t)
	limiter, err := ratelimit.NewWindowLimiter(window, capacity)
	require.NoError(t, err)
	defer func() { require.NoError(t, limiter.Shutdown()) }()
	client, err := NewClient(newTestConfig(server.URL), limiter, ClientOpts{})
	require.NoError(t, err)

	startedAt := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, submissions)
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.CreateDocument(context.Background(), makeValidDocument(), "sig")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	reqs := server.received()
	require.Len(t, reqs, submissions)

	perWindow := map[int]int{}
	for _, r := range reqs {
		perWindow[int(r.at.Sub(startedAt)/window)]++
	}
	for idx, n := range perWindow {
		assert.LessOrEqual(t, n, capacity, "window %d", idx)
	}
	require.GreaterOrEqual(t, time.Since(startedAt), 2*window)
}

func TestBuildUserAgent(t *testing.T) {
	token := "go-crptapi/" + libinfo.GetLibVersion()
	require.Equal(t, token, buildUserAgent(""))
	require.Equal(t, token, buildUserAgent(DefaultUserAgent))
	require.Equal(t, "my-shop/1.2 "+token, buildUserAgent("my-shop/1.2"))
}
