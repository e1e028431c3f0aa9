package zapsign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wmorato/ZapSign/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultBaseURL = "https://sandbox.api.zapsign.com.br/api/v1"

// APIError is the single normalized error for every provider failure,
// transport or HTTP. Callers must not assume structured error bodies
// beyond Detail.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("zapsign: %s", e.Detail)
	}
	return fmt.Sprintf("zapsign: HTTP %d: %s", e.Status, e.Detail)
}

// Client is a typed HTTP client for the ZapSign REST API. It holds one
// credential; the credential resolver picks per-company tokens before
// constructing it.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	// downloads get a longer timeout than status calls
	downloadClient *http.Client
}

func NewClient(baseURL, apiToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:        baseURL,
		apiToken:       apiToken,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		downloadClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SignerPayload is the signer shape sent on document creation.
type SignerPayload struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// DocumentResponse is the provider's document representation.
type DocumentResponse struct {
	ID         int              `json:"id"`
	Token      string           `json:"token"`
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	SignedFile string           `json:"signed_file"`
	ExternalID string           `json:"external_id"`
	Signers    []SignerResponse `json:"signers"`
}

type SignerResponse struct {
	Token      string `json:"token"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	ExternalID string `json:"external_id"`
}

type createDocumentRequest struct {
	Name       string          `json:"name"`
	ExternalID string          `json:"external_id,omitempty"`
	URLPDF     string          `json:"url_pdf,omitempty"`
	Base64PDF  string          `json:"base64_pdf,omitempty"`
	Signers    []SignerPayload `json:"signers"`
	Lang       string          `json:"lang"`
}

// CreateDocument registers a document with the provider. Exactly one of
// urlPDF/base64PDF must be non-empty; when both arrive base64 wins, as
// the upstream API rejects neither but documents base64 as preferred.
func (c *Client) CreateDocument(ctx context.Context, name, externalID, urlPDF, base64PDF string, signers []SignerPayload) (*DocumentResponse, error) {
	if urlPDF == "" && base64PDF == "" {
		return nil, &APIError{Detail: "either url_pdf or base64_pdf is required"}
	}
	if base64PDF != "" {
		urlPDF = ""
	}
	if signers == nil {
		signers = []SignerPayload{}
	}

	req := createDocumentRequest{
		Name:       name,
		ExternalID: externalID,
		URLPDF:     urlPDF,
		Base64PDF:  base64PDF,
		Signers:    signers,
		Lang:       "pt-br",
	}

	var doc DocumentResponse
	if err := c.do(ctx, http.MethodPost, "/docs", "create_document", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocumentStatus fetches the remote document detail, including the
// current status and a fresh signed_file URL when available.
func (c *Client) GetDocumentStatus(ctx context.Context, documentToken string) (*DocumentResponse, error) {
	var doc DocumentResponse
	err := c.do(ctx, http.MethodGet, "/docs/"+documentToken, "get_document", nil, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, documentToken string) error {
	return c.do(ctx, http.MethodDelete, "/docs/"+documentToken+"/", "delete_document", nil, nil)
}

func (c *Client) AddSigner(ctx context.Context, documentToken, name, email, externalID string) (*SignerResponse, error) {
	payload := map[string]string{
		"document_token": documentToken,
		"name":           name,
	}
	if email != "" {
		payload["email"] = email
	}
	if externalID != "" {
		payload["external_id"] = externalID
	}

	var signer SignerResponse
	if err := c.do(ctx, http.MethodPost, "/signers", "add_signer", payload, &signer); err != nil {
		return nil, err
	}
	return &signer, nil
}

// UpdateSigner pushes changed signer fields. A call with nothing to
// change is a no-op rather than an empty remote write.
func (c *Client) UpdateSigner(ctx context.Context, signerToken, name, email, externalID string) error {
	payload := map[string]string{}
	if name != "" {
		payload["name"] = name
	}
	if email != "" {
		payload["email"] = email
	}
	if externalID != "" {
		payload["external_id"] = externalID
	}
	if len(payload) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/signers/"+signerToken+"/", "update_signer", payload, nil)
}

func (c *Client) RemoveSigner(ctx context.Context, signerToken string) error {
	return c.do(ctx, http.MethodDelete, "/signer/"+signerToken+"/remove/", "remove_signer", nil, nil)
}

// DownloadSignedPDF fetches the signed PDF bytes. Kept for callers that
// need the file itself; the API surface normally hands out the
// signed_file URL instead.
func (c *Client) DownloadSignedPDF(ctx context.Context, documentToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/docs/"+documentToken+"/pdf", nil)
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, &APIError{Detail: fmt.Sprintf("connection to provider failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Detail: fmt.Sprintf("reading provider response: %v", err)}
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Detail: normalizeErrorBody(body)}
	}
	return body, nil
}

// do executes one provider call and normalizes every failure mode into
// *APIError.
func (c *Client) do(ctx context.Context, method, endpoint, operation string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &APIError{Detail: fmt.Sprintf("marshal request: %v", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return &APIError{Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	timer := prometheus.NewTimer(metrics.ProviderRequestDuration.WithLabelValues(operation))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "transport_error").Inc()
		return &APIError{Detail: fmt.Sprintf("connection to provider failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "read_error").Inc()
		return &APIError{Detail: fmt.Sprintf("reading provider response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return &APIError{Status: resp.StatusCode, Detail: normalizeErrorBody(respBody)}
	}
	metrics.ProviderRequestsTotal.WithLabelValues(operation, "ok").Inc()

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{Detail: fmt.Sprintf("parsing provider response: %v", err)}
		}
	}
	return nil
}

// normalizeErrorBody extracts a human-readable detail from the
// provider's heterogeneous error bodies. Precedence: structured "error"
// field, then "message", then the first 100 bytes of the raw body.
func normalizeErrorBody(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	raw := string(body)
	if len(raw) > 100 {
		raw = raw[:100]
	}
	return raw
}
