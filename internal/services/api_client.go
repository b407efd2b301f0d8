// internal/services/api_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

// APIError is a non-2xx answer from the platform API.
type APIError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// TokenFunc returns the bearer credential to send, if any.
type TokenFunc func() (string, bool)

// APIClient talks to the platform REST API on behalf of a session.
type APIClient struct {
	baseURL string
	client  *http.Client
	token   TokenFunc
	logger  logrus.FieldLogger
}

func NewAPIClient(cfg config.APIConfig, token TokenFunc, logger logrus.FieldLogger) *APIClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if token == nil {
		token = func() (string, bool) { return "", false }
	}
	return &APIClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		token:   token,
		logger:  logger,
	}
}

// WithToken returns a client bound to a fixed credential.
func (c *APIClient) WithToken(token string) *APIClient {
	clone := *c
	clone.token = func() (string, bool) { return token, token != "" }
	return &clone
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Platform API request failed")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(raw), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// unwrapData strips a {"data": ...} envelope when present.
func unwrapData(raw []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return raw
}

func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if body.Message != "" {
		return body.Message
	}
	var text string
	if json.Unmarshal(body.Error, &text) == nil && text != "" {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	return fallback
}

type TrackFilter struct {
	ArtistID string
	Status   models.TrackStatus
	Search   string
}

func (c *APIClient) ListTracks(ctx context.Context, filter TrackFilter) ([]models.Track, error) {
	query := url.Values{}
	if filter.ArtistID != "" {
		query.Set("artistId", filter.ArtistID)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	var tracks []models.Track
	if err := c.do(ctx, http.MethodGet, "/tracks", query, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *APIClient) GetTrack(ctx context.Context, id string) (*models.Track, error) {
	var track models.Track
	if err := c.do(ctx, http.MethodGet, "/tracks/"+url.PathEscape(id), nil, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func (c *APIClient) GetTransfer(ctx context.Context, id string) (*models.OwnershipTransfer, error) {
	var transfer models.OwnershipTransfer
	if err := c.do(ctx, http.MethodGet, "/transfers/"+url.PathEscape(id), nil, nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *APIClient) ListLicenseRequests(ctx context.Context, trackID, requesterID string) ([]models.LicenseRequest, error) {
	query := url.Values{}
	if trackID != "" {
		query.Set("trackId", trackID)
	}
	if requesterID != "" {
		query.Set("requesterId", requesterID)
	}
	var requests []models.LicenseRequest
	if err := c.do(ctx, http.MethodGet, "/licenses", query, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *APIClient) GetLicenseRequest(ctx context.Context, id string) (*models.LicenseRequest, error) {
	var license models.LicenseRequest
	if err := c.do(ctx, http.MethodGet, "/licenses/"+url.PathEscape(id), nil, nil, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *APIClient) CreateLicenseRequest(ctx context.Context, req models.LicenseRequest) (*models.LicenseRequest, error) {
	var created models.LicenseRequest
	if err := c.do(ctx, http.MethodPost, "/licenses", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(userID)+"/status", nil, body, nil)
}

func (c *APIClient) GetSystemSettings(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	if err := c.do(ctx, http.MethodGet, "/settings", nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *APIClient) PublishCopyright(ctx context.Context, trackID, txHash string) error {
	body := map[string]string{"blockchainTx": txHash}
	return c.do(ctx, http.MethodPost, "/tracks/"+url.PathEscape(trackID)+"/publish", nil, body, nil)
}

func (c *APIClient) PublishTransfer(ctx context.Context, transferID, txHash, certificateURL string) error {
	body := map[string]string{"blockchainTx": txHash}
	if certificateURL != "" {
		body["certificateUrl"] = certificateURL
	}
	return c.do(ctx, http.MethodPost, "/transfers/"+url.PathEscape(transferID)+"/publish", nil, body, nil)
}
