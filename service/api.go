package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/muroom-studio/muroom-admin/config"
	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

const (
	pathFilterOptions   = "/api/v1/studios/filter-options"
	pathNearbyStations  = "/api/v1/subway/nearby"
	pathPresignedURL    = "/api/admin/studios/presigned-url"
	pathStudios         = "/api/admin/studios"
	pathStudioMap       = "/api/v1/studios/map-list"
	pathStudio          = "/api/v1/studios/"
	pathNickname        = "/api/admin/owners/generate-nickname"
	pathOwners          = "/api/admin/owners"
	pathTerms           = "/api/v1/terms"
	pathMusicianTerms   = "/api/v1/terms/musician"
	pathMusicianSignup  = "/api/v1/terms/musician/signup"
	maxErrorBodyInLogs  = 512
	defaultStudioPageSz = 10
)

// apiResponse is the envelope every muroom endpoint answers with.
type apiResponse[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// presignRequest asks for write URLs; this client always sends one file.
type presignRequest struct {
	StudioImages []model.PresignRequest `json:"studioImages"`
}

type presignResponse struct {
	PresignedURLs []model.PresignedURL `json:"presignedUrls"`
}

// APIClient talks to the muroom backend.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(cfg *config.APIConfig) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// BaseURL is the upstream origin, used by the pass-through proxy.
func (c *APIClient) BaseURL() string { return c.baseURL }

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug(ctx, "Upstream call", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, respBody, nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// decodeData unwraps the envelope and requires a data member.
func decodeData[T any](endpoint string, body []byte) (*T, error) {
	var env apiResponse[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &apperr.ParseError{Endpoint: endpoint, Err: err}
	}
	if env.Data == nil {
		return nil, &apperr.ParseError{Endpoint: endpoint, Err: errors.New("response has no data")}
	}
	return env.Data, nil
}

// get performs a read call. Non-2xx answers become *apperr.UpstreamError.
func get[T any](ctx context.Context, c *APIClient, path string, query url.Values) (*T, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &apperr.UpstreamError{Endpoint: path, Status: status, Body: truncate(body)}
	}
	return decodeData[T](path, body)
}

// getList is get for list endpoints, where a null data member means empty.
func getList[T any](ctx context.Context, c *APIClient, path string, query url.Values) ([]T, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &apperr.UpstreamError{Endpoint: path, Status: status, Body: truncate(body)}
	}
	var env apiResponse[[]T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &apperr.ParseError{Endpoint: path, Err: err}
	}
	if env.Data == nil {
		return []T{}, nil
	}
	return *env.Data, nil
}

// post performs a create call. Non-2xx answers become *apperr.SubmissionError
// carrying the textual body.
func (c *APIClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, &apperr.SubmissionError{Endpoint: path, Status: status, Err: err}
	}
	if !isSuccess(status) {
		return nil, &apperr.SubmissionError{Endpoint: path, Status: status, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyInLogs {
		return s[:maxErrorBodyInLogs] + "..."
	}
	return s
}

// FilterOptions loads the selectable codes for the studio form.
func (c *APIClient) FilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	return get[model.FilterOptions](ctx, c, pathFilterOptions, nil)
}

// NearbyStations looks up subway stations around an address.
func (c *APIClient) NearbyStations(ctx context.Context, address string) (*model.NearbyStations, error) {
	return get[model.NearbyStations](ctx, c, pathNearbyStations, url.Values{"address": {address}})
}

// IssueUploadURL requests a pre-signed write URL for a single file.
func (c *APIClient) IssueUploadURL(ctx context.Context, req model.PresignRequest) (model.PresignedURL, error) {
	fail := func(status int, err error) (model.PresignedURL, error) {
		return model.PresignedURL{}, &apperr.URLIssuanceError{
			FileName: req.FileName,
			Category: string(req.Category),
			Status:   status,
			Err:      err,
		}
	}

	status, body, err := c.do(ctx, http.MethodPost, pathPresignedURL, nil, presignRequest{
		StudioImages: []model.PresignRequest{req},
	})
	if err != nil {
		return fail(status, err)
	}
	if !isSuccess(status) {
		return fail(status, errors.New(truncate(body)))
	}

	data, err := decodeData[presignResponse](pathPresignedURL, body)
	if err != nil {
		return fail(status, err)
	}
	if len(data.PresignedURLs) != 1 {
		return fail(status, &apperr.ParseError{
			Endpoint: pathPresignedURL,
			Err:      fmt.Errorf("expected 1 presigned url, got %d", len(data.PresignedURLs)),
		})
	}
	return data.PresignedURLs[0], nil
}

// CreateStudio submits the composite studio payload. The studio exists once
// the backend answers 2xx, so an unreadable success body is logged and
// reported as StudioID zero rather than as a failure.
func (c *APIClient) CreateStudio(ctx context.Context, req *model.StudioCreateRequest) (*model.StudioCreated, error) {
	body, err := c.post(ctx, pathStudios, req)
	if err != nil {
		return nil, err
	}
	created := &model.StudioCreated{}
	if len(bytes.TrimSpace(body)) == 0 {
		return created, nil
	}

	var env apiResponse[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Warn(ctx, "Unreadable studio creation response", "error", &apperr.ParseError{Endpoint: pathStudios, Err: err})
		return created, nil
	}
	if env.Data == nil {
		return created, nil
	}
	raw := bytes.TrimSpace(*env.Data)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, created); err != nil {
			logger.Warn(ctx, "Unreadable studio creation response", "error", &apperr.ParseError{Endpoint: pathStudios, Err: err})
		}
		return created, nil
	}
	// Some deployments answer with the bare id.
	if id, err := strconv.ParseInt(strings.Trim(string(raw), `"`), 10, 64); err == nil {
		created.StudioID = id
	}
	return created, nil
}

// ListStudios pages through every registered studio, newest first.
func (c *APIClient) ListStudios(ctx context.Context, page, size int) (*model.StudioPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultStudioPageSz
	}
	query := url.Values{
		"minLatitude":  {"32"},
		"maxLatitude":  {"39"},
		"minLongitude": {"124"},
		"maxLongitude": {"133"},
		"sort":         {"latest,desc"},
		"page":         {strconv.Itoa(page)},
		"size":         {strconv.Itoa(size)},
	}
	return get[model.StudioPage](ctx, c, pathStudioMap, query)
}

func (c *APIClient) GetStudio(ctx context.Context, id int64) (*model.StudioDetail, error) {
	return get[model.StudioDetail](ctx, c, pathStudio+strconv.FormatInt(id, 10), nil)
}

// GenerateNickname asks the backend for a random owner nickname.
func (c *APIClient) GenerateNickname(ctx context.Context) (string, error) {
	name, err := get[string](ctx, c, pathNickname, nil)
	if err != nil {
		return "", err
	}
	return *name, nil
}

func (c *APIClient) CreateOwner(ctx context.Context, req *model.OwnerCreateRequest) error {
	_, err := c.post(ctx, pathOwners, req)
	return err
}

func (c *APIClient) CreateTerms(ctx context.Context, req *model.TermsCreateRequest) error {
	_, err := c.post(ctx, pathTerms, req)
	return err
}

// ListTerms returns the musician terms of the given types; all types when
// none are named.
func (c *APIClient) ListTerms(ctx context.Context, types []model.TermsType) ([]model.TermItem, error) {
	if len(types) == 0 {
		types = model.AllTermsTypes
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return getList[model.TermItem](ctx, c, pathMusicianTerms, url.Values{"types": {strings.Join(names, ",")}})
}

func (c *APIClient) GetTerms(ctx context.Context, id int64) (*model.TermContent, error) {
	return get[model.TermContent](ctx, c, pathTerms+"/"+strconv.FormatInt(id, 10), nil)
}

// ListSignupTerms returns the terms shown at musician sign-up.
func (c *APIClient) ListSignupTerms(ctx context.Context) ([]model.TermItem, error) {
	return getList[model.TermItem](ctx, c, pathMusicianSignup, nil)
}
