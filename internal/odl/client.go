package odl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API is the subset of the ODL Video REST contract the store consumes.
// *Client implements it; tests substitute fakes.
type API interface {
	GetCollections(ctx context.Context, page int) (*CollectionsPage, error)
	GetCollection(ctx context.Context, key string) (*Collection, error)
	CreateCollection(ctx context.Context, body NewCollection) (*Collection, error)
	UpdateCollection(ctx context.Context, key string, body CollectionUpdate) (*Collection, error)
	GetVideo(ctx context.Context, key string) (*Video, error)
	UpdateVideo(ctx context.Context, key string, body VideoUpdate) (*Video, error)
	DeleteVideo(ctx context.Context, key string) error
	UploadSubtitle(ctx context.Context, upload SubtitleUpload) (*Subtitle, error)
	DeleteSubtitle(ctx context.Context, id int) error
	GetVideoAnalytics(ctx context.Context, key string) (*VideoAnalytics, error)
	GetEdxEndpoints(ctx context.Context) ([]EdxEndpoint, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetPotentialCollectionOwners(ctx context.Context) ([]PotentialOwner, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the ODL Video HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	csrfToken string
	sessionID string
}

const (
	defaultBaseURL   = "http://127.0.0.1:8089"
	defaultUserAgent = "odlv/0.1"
	requestTimeout   = 15 * time.Second
	apiPrefix        = "/api/v0"

	csrfHeader    = "X-CSRFToken"
	csrfCookie    = "csrftoken"
	sessionCookie = "sessionid"
)

// Option customises a Client.
type Option func(*Client)

// WithCSRFToken sets the token sent with unsafe methods.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrfToken = strings.TrimSpace(token) }
}

// WithSessionID sets the session cookie value.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = strings.TrimSpace(id) }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetCollections retrieves one page of the collection list.
func (c *Client) GetCollections(ctx context.Context, page int) (*CollectionsPage, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	rel := &url.URL{Path: apiPrefix + "/collections/", RawQuery: values.Encode()}
	var payload CollectionsPage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetCollection retrieves one collection with its videos.
func (c *Client) GetCollection(ctx context.Context, key string) (*Collection, error) {
	path, err := keyPath("/collections/", key)
	if err != nil {
		return nil, err
	}
	var payload Collection
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateCollection creates a collection.
func (c *Client) CreateCollection(ctx context.Context, body NewCollection) (*Collection, error) {
	if strings.TrimSpace(body.Title) == "" {
		return nil, fmt.Errorf("collection title required")
	}
	var payload Collection
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/collections/", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateCollection patches a collection.
func (c *Client) UpdateCollection(ctx context.Context, key string, body CollectionUpdate) (*Collection, error) {
	path, err := keyPath("/collections/", key)
	if err != nil {
		return nil, err
	}
	var payload Collection
	if err := c.do(ctx, http.MethodPatch, path, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetVideo retrieves one video.
func (c *Client) GetVideo(ctx context.Context, key string) (*Video, error) {
	path, err := keyPath("/videos/", key)
	if err != nil {
		return nil, err
	}
	var payload Video
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateVideo patches a video.
func (c *Client) UpdateVideo(ctx context.Context, key string, body VideoUpdate) (*Video, error) {
	path, err := keyPath("/videos/", key)
	if err != nil {
		return nil, err
	}
	var payload Video
	if err := c.do(ctx, http.MethodPatch, path, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteVideo deletes a video.
func (c *Client) DeleteVideo(ctx context.Context, key string) error {
	path, err := keyPath("/videos/", key)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// UploadSubtitle sends a subtitle file as multipart form data.
func (c *Client) UploadSubtitle(ctx context.Context, upload SubtitleUpload) (*Subtitle, error) {
	if strings.TrimSpace(upload.VideoKey) == "" {
		return nil, fmt.Errorf("video key required")
	}
	if upload.Content == nil {
		return nil, fmt.Errorf("subtitle content required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"video":    upload.VideoKey,
		"language": upload.Language,
		"filename": upload.Filename,
	}
	for _, name := range []string{"video", "language", "filename"} {
		if err := form.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, fmt.Errorf("copy subtitle: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	rel := &url.URL{Path: apiPrefix + "/upload_subtitles/"}
	var payload Subtitle
	if err := c.send(ctx, http.MethodPost, rel, &buf, form.FormDataContentType(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteSubtitle deletes a subtitle by id.
func (c *Client) DeleteSubtitle(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("subtitle id required")
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/subtitles/%d/", apiPrefix, id), nil, nil)
}

// GetVideoAnalytics retrieves per-channel view counts for a video.
func (c *Client) GetVideoAnalytics(ctx context.Context, key string) (*VideoAnalytics, error) {
	path, err := keyPath("/videos/", key)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data VideoAnalytics `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path+"analytics/", nil, &envelope); err != nil {
		return nil, err
	}
	envelope.Data.VideoKey = key
	return &envelope.Data, nil
}

// GetEdxEndpoints lists the configured edX endpoints.
func (c *Client) GetEdxEndpoints(ctx context.Context) ([]EdxEndpoint, error) {
	var payload []EdxEndpoint
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/edx-endpoints/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetUsers lists users visible to the caller.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var payload []User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/users/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetPotentialCollectionOwners lists users a collection can be assigned to.
func (c *Client) GetPotentialCollectionOwners(ctx context.Context) ([]PotentialOwner, error) {
	var payload []PotentialOwner
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/potential-owners/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.send(ctx, method, rel, reader, contentType, dest)
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.sessionID})
	}
	if c.csrfToken != "" && unsafeMethod(method) {
		req.Header.Set(csrfHeader, c.csrfToken)
		req.AddCookie(&http.Cookie{Name: csrfCookie, Value: c.csrfToken})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return newAPIError(method, rel.Path, resp.StatusCode, raw)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func keyPath(collection, key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("key required")
	}
	return apiPrefix + collection + url.PathEscape(trimmed) + "/", nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
