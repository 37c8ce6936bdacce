/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/acronis/go-crptapi/httpclient"
	"github.com/acronis/go-crptapi/internal/libinfo"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/ratelimit"
)

// CreateDocumentPath is the path of the document creation endpoint.
const CreateDocumentPath = "/api/v3/lk/documents/create"

// SignatureHeader carries the caller's signature of the document.
const SignatureHeader = "Signature"

// RequestTypeCreateDocument is the request type of document submissions in HTTP client logs and metrics.
const RequestTypeCreateDocument = "create-document"

const tracerName = "github.com/acronis/go-crptapi/crptapi"

const maxErrorBodySize = 4 << 10

// ClientOpts represents options for Client.
type ClientOpts struct {
	// Logger is used for submission logs and HTTP client logs. Disabled logger is used if nil.
	Logger log.FieldLogger

	// Tracer starts a span per submission. The tracer of the global otel provider is used if nil.
	Tracer trace.Tracer

	// HTTPMetricsCollector is required if metrics are enabled in Config.HTTPClient.
	HTTPMetricsCollector httpclient.MetricsCollector

	// Transport is the innermost RoundTripper. A clone of http.DefaultTransport is used if nil.
	Transport http.RoundTripper
}

// Client submits documents to the CRPT API. Every request is admitted by the rate limiter first.
// Client is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	endpointURL string
	logger      log.FieldLogger
	tracer      trace.Tracer
}

// NewClient creates a new Client. limiter may be shared with other clients to keep a common quota.
func NewClient(cfg *Config, limiter ratelimit.Acquirer, opts ClientOpts) (*Client, error) {
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter must be specified")
	}
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	httpClient, err := httpclient.NewWithOpts(&cfg.HTTPClient, httpclient.Opts{
		UserAgent:   buildUserAgent(cfg.UserAgent),
		RequestType: RequestTypeCreateDocument,
		Delegate:    opts.Transport,
		RateLimiter: limiter,
		LoggerProvider: func(ctx context.Context) log.FieldLogger {
			if l := httpclient.GetLoggerFromContext(ctx); l != nil {
				return l
			}
			return logger
		},
		MetricsCollector: opts.HTTPMetricsCollector,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		httpClient:  httpClient,
		endpointURL: strings.TrimRight(cfg.BaseURL, "/") + CreateDocumentPath,
		logger:      logger,
		tracer:      tracer,
	}, nil
}

// buildUserAgent appends the library token to the configured product, e.g. "my-shop go-crptapi/v1.0.0".
func buildUserAgent(product string) string {
	if product == "" || product == libinfo.LibShortName {
		return libinfo.UserAgentToken()
	}
	return product + " " + libinfo.UserAgentToken()
}

// CreateDocument validates doc and submits it with the given signature.
// It blocks until the rate limiter admits the request, ctx is done or the limiter is shut down
// (the returned error matches ratelimit.ErrShutdown via errors.Is in the latter case).
// Invalid input fails with *ValidationError before any permit is taken.
// A response status other than 200 OK fails with *UnexpectedStatusError.
func (c *Client) CreateDocument(ctx context.Context, doc Document, signature string) (err error) {
	ctx, span := c.tracer.Start(ctx, "crptapi.CreateDocument", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("crpt.doc_id", doc.DocID),
		attribute.Int("crpt.products", len(doc.Products)),
	)

	if err = ValidateDocument(&doc, signature); err != nil {
		return err
	}

	doc.DocType = DocTypeIntroduceGoods
	body, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send create document request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &UnexpectedStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("document created", log.String("doc_id", doc.DocID), log.Int("products", len(doc.Products)))
	return nil
}
