package odl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("base = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("video.example.edu:8443")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "video.example.edu:8443" {
		t.Fatalf("url = %q, want http://video.example.edu:8443", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestKeyPath_EscapesAndRequiresKey(t *testing.T) {
	got, err := keyPath("/videos/", " a b ")
	if err != nil {
		t.Fatalf("keyPath returned error: %v", err)
	}
	if got != "/api/v0/videos/a%20b/" {
		t.Fatalf("keyPath = %q", got)
	}
	if _, err := keyPath("/videos/", "  "); err == nil {
		t.Fatalf("keyPath returned nil error for empty key")
	}
}

func TestClient_SendsHeadersAndCookies(t *testing.T) {
	t.Parallel()

	var gotGet, gotPatch *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			gotGet = r.Clone(context.Background())
			_ = json.NewEncoder(w).Encode(Video{Key: "v1", Title: "Lecture 1"})
		case http.MethodPatch:
			gotPatch = r.Clone(context.Background())
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(Video{Key: "v1", Title: body["title"].(string)})
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithCSRFToken("tok"), WithSessionID("sess"), WithUserAgent("odlv-test/1"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	v, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo returned error: %v", err)
	}
	if v.Title != "Lecture 1" {
		t.Fatalf("GetVideo title = %q", v.Title)
	}
	if gotGet.Header.Get("X-CSRFToken") != "" {
		t.Fatalf("GET carried a CSRF header")
	}
	if cookie, err := gotGet.Cookie("sessionid"); err != nil || cookie.Value != "sess" {
		t.Fatalf("session cookie = %v, %v", cookie, err)
	}
	if gotGet.Header.Get("User-Agent") != "odlv-test/1" {
		t.Fatalf("User-Agent = %q", gotGet.Header.Get("User-Agent"))
	}

	title := "Renamed"
	v, err = c.UpdateVideo(ctx, "v1", VideoUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}
	if v.Title != "Renamed" {
		t.Fatalf("UpdateVideo title = %q", v.Title)
	}
	if gotPatch.Header.Get("X-CSRFToken") != "tok" {
		t.Fatalf("PATCH CSRF header = %q, want tok", gotPatch.Header.Get("X-CSRFToken"))
	}
	if gotPatch.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("PATCH Content-Type = %q", gotPatch.Header.Get("Content-Type"))
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v0/videos/bad/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/v0/videos/invalid/":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"title":["This field may not be blank."]}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.GetVideo(context.Background(), "bad")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("GetVideo error = %v, want decode response error", err)
	}

	_, err = c.GetVideo(context.Background(), "other")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("GetVideo error = %v, want APIError 500", err)
	}
	if apiErr.Body != nil {
		t.Fatalf("APIError.Body = %v, want nil for non-JSON body", apiErr.Body)
	}

	_, err = c.GetVideo(context.Background(), "invalid")
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetVideo error = %v, want APIError", err)
	}
	fields := apiErr.FieldErrors()
	if len(fields["title"]) != 1 || fields["title"][0] != "This field may not be blank." {
		t.Fatalf("FieldErrors = %v", fields)
	}
	if !strings.Contains(apiErr.Error(), "title: This field may not be blank.") {
		t.Fatalf("APIError.Error() = %q", apiErr.Error())
	}
}

func TestClient_NetworkErrorIsWrapped(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.GetUsers(context.Background())
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("GetUsers error = %v, want execute request error", err)
	}
}

func TestClient_ValidatesArguments(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.CreateCollection(ctx, NewCollection{}); err == nil {
		t.Fatalf("CreateCollection accepted an empty title")
	}
	if err := c.DeleteSubtitle(ctx, 0); err == nil {
		t.Fatalf("DeleteSubtitle accepted id 0")
	}
	if _, err := c.UploadSubtitle(ctx, SubtitleUpload{VideoKey: "v1"}); err == nil {
		t.Fatalf("UploadSubtitle accepted nil content")
	}
	if err := c.DeleteVideo(ctx, ""); err == nil {
		t.Fatalf("DeleteVideo accepted an empty key")
	}
}

func TestVideoAnalytics_TotalViews(t *testing.T) {
	a := VideoAnalytics{
		Channels: []string{"front", "board"},
		ViewsAtTimes: map[string]map[string]int{
			"0":  {"front": 3, "board": 1},
			"10": {"front": 2},
		},
	}
	if got := a.TotalViews("front"); got != 5 {
		t.Fatalf("TotalViews(front) = %d, want 5", got)
	}
	if got := a.TotalViews("missing"); got != 0 {
		t.Fatalf("TotalViews(missing) = %d, want 0", got)
	}
}
