package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const module = "gateway"

// FilePart is a single multipart file field.
type FilePart struct {
	Field    string
	FileName string
	Content  []byte
}

// Request describes one backend call. Body is JSON-encoded unless File is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	File   *FilePart
}

// Gateway is the single exit point to the backend. It attaches the bearer
// credential and turns every failure into an *apperror.Error.
type Gateway struct {
	BaseURL string
	Client  *http.Client

	store  CredentialStore
	logger logger.ILogger
	tracer trace.Tracer

	mu              sync.RWMutex
	expiryListeners []func()
}

func New(baseURL string, timeout time.Duration, store CredentialStore, log logger.ILogger) *Gateway {
	return &Gateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		logger: log,
		tracer: otel.Tracer("sales-forecast-client/gateway"),
	}
}

// OnAuthExpired registers fn to run after the credential was cleared because
// the backend answered 401.
func (g *Gateway) OnAuthExpired(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expiryListeners = append(g.expiryListeners, fn)
}

func (g *Gateway) Store() CredentialStore {
	return g.store
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (g *Gateway) Do(ctx context.Context, req Request, out interface{}) error {
	requestID := uuid.NewString()
	ctx, span := g.tracer.Start(ctx, req.Method+" "+req.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.route", req.Path),
		attribute.String("request.id", requestID),
	)

	httpReq, err := g.buildRequest(ctx, req)
	if err != nil {
		g.logger.Error(module, "Failed to build request", map[string]interface{}{
			"path": req.Path, "error": err.Error(), "request_id": requestID,
		})
		span.SetStatus(codes.Error, "build request")
		return apperror.ServerRejected(0, "")
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	g.attachCredential(ctx, httpReq)

	start := time.Now()
	resp, err := g.Client.Do(httpReq)
	if err != nil {
		g.logger.Warn(module, "Backend unreachable", map[string]interface{}{
			"method": req.Method, "path": req.Path, "error": err.Error(), "request_id": requestID,
		})
		span.SetStatus(codes.Error, "unreachable")
		return apperror.NetworkUnreachable()
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Warn(module, "Failed to read response body", map[string]interface{}{
			"path": req.Path, "error": err.Error(), "request_id": requestID,
		})
		span.SetStatus(codes.Error, "read body")
		return apperror.NetworkUnreachable()
	}

	g.logger.Debug(module, "Backend responded", map[string]interface{}{
		"method":      req.Method,
		"path":        req.Path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
		"request_id":  requestID,
	})

	if resp.StatusCode == http.StatusUnauthorized {
		span.SetStatus(codes.Error, "unauthorized")
		g.expireCredential(ctx, req.Path)
		return apperror.AuthRejected(extractDetail(body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(body)
		span.SetStatus(codes.Error, "rejected")
		g.logger.Warn(module, "Backend rejected request", map[string]interface{}{
			"method": req.Method, "path": req.Path, "status": resp.StatusCode, "detail": detail, "request_id": requestID,
		})
		return apperror.ServerRejected(resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		g.logger.Error(module, "Failed to decode response", map[string]interface{}{
			"path": req.Path, "error": err.Error(), "request_id": requestID,
		})
		span.SetStatus(codes.Error, "decode")
		return apperror.ServerRejected(resp.StatusCode, "")
	}
	return nil
}

func (g *Gateway) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := g.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.File != nil:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		part, err := w.CreateFormFile(req.File.Field, req.File.FileName)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(req.File.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("close multipart writer: %w", err)
		}
		body = buf
		contentType = w.FormDataContentType()
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (g *Gateway) attachCredential(ctx context.Context, httpReq *http.Request) {
	token, err := g.store.Get(ctx)
	if err != nil {
		g.logger.Warn(module, "Credential store unavailable, sending anonymously", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if token == nil || token.AccessToken == "" {
		return
	}
	token.SetAuthHeader(httpReq)
}

func (g *Gateway) expireCredential(ctx context.Context, path string) {
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error(module, "Failed to clear credential", map[string]interface{}{
			"error": err.Error(),
		})
	}
	g.logger.Info(module, "Credential cleared after authorization failure", map[string]interface{}{
		"path": path,
	})

	g.mu.RLock()
	listeners := append([]func(){}, g.expiryListeners...)
	g.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// SetCredential stores a freshly issued token.
func (g *Gateway) SetCredential(ctx context.Context, token *oauth2.Token) error {
	return g.store.Set(ctx, token)
}

// extractDetail reads a FastAPI-style {"detail": "..."} or {"message": "..."}
// body. Structured (non-string) details are ignored.
func extractDetail(body []byte) string {
	var payload struct {
		Detail  interface{} `json:"detail"`
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok && s != "" {
		return s
	}
	if s, ok := payload.Message.(string); ok && s != "" {
		return s
	}
	return ""
}
