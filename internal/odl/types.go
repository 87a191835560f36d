package odl

import (
	"io"
	"time"
)

// Collection mirrors /api/v0/collections/:key/.
type Collection struct {
	Key            string                  `json:"key"`
	CreatedAt      string                  `json:"created_at"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Owner          int                     `json:"owner"`
	ViewLists      []string                `json:"view_lists"`
	AdminLists     []string                `json:"admin_lists"`
	IsLoggedInOnly bool                    `json:"is_logged_in_only"`
	IsAdmin        bool                    `json:"is_admin"`
	VideoCount     int                     `json:"video_count"`
	Videos         []Video                 `json:"videos"`
	EdxCourseID    string                  `json:"edx_course_id"`
	EdxEndpoints   []CollectionEdxEndpoint `json:"edx_endpoints"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (c Collection) ParsedCreatedAt() time.Time {
	return parseTime(c.CreatedAt)
}

// CollectionEdxEndpoint links a collection to one edX endpoint.
type CollectionEdxEndpoint struct {
	EdxEndpointID int  `json:"edx_endpoint_id"`
	IsDefault     bool `json:"is_default"`
}

// CollectionsPage mirrors the paginated /api/v0/collections/ response.
type CollectionsPage struct {
	Results    []Collection `json:"results"`
	Count      int          `json:"count"`
	NumPages   int          `json:"num_pages"`
	StartIndex int          `json:"start_index"`
	EndIndex   int          `json:"end_index"`
}

// NewCollection is the POST /api/v0/collections/ body.
type NewCollection struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	ViewLists      []string `json:"view_lists"`
	AdminLists     []string `json:"admin_lists"`
	IsLoggedInOnly bool     `json:"is_logged_in_only"`
	Owner          int      `json:"owner,omitempty"`
}

// CollectionUpdate is the PATCH /api/v0/collections/:key/ body. Nil fields
// are left untouched by the server.
type CollectionUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	ViewLists   *[]string `json:"view_lists,omitempty"`
	AdminLists  *[]string `json:"admin_lists,omitempty"`
}

// Video mirrors /api/v0/videos/:key/.
type Video struct {
	Key             string      `json:"key"`
	CollectionKey   string      `json:"collection_key"`
	CollectionTitle string      `json:"collection_title"`
	CreatedAt       string      `json:"created_at"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Status          string      `json:"status"`
	Multiangle      bool        `json:"multiangle"`
	IsPublic        bool        `json:"is_public"`
	IsPrivate       bool        `json:"is_private"`
	ViewLists       []string    `json:"view_lists"`
	YouTubeID       string      `json:"youtube_id"`
	Files           []VideoFile `json:"videofile_set"`
	Subtitles       []Subtitle  `json:"videosubtitle_set"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (v Video) ParsedCreatedAt() time.Time {
	return parseTime(v.CreatedAt)
}

// VideoFile is one encoding of a video.
type VideoFile struct {
	ID            int    `json:"id"`
	CreatedAt     string `json:"created_at"`
	S3ObjectKey   string `json:"s3_object_key"`
	BucketName    string `json:"bucket_name"`
	EncodingType  string `json:"encoding"`
	PreferredPlay bool   `json:"preferred_for_playback"`
	CloudfrontURL string `json:"cloudfront_url"`
}

// VideoUpdate is the PATCH /api/v0/videos/:key/ body.
type VideoUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Subtitle mirrors one entry of videosubtitle_set.
type Subtitle struct {
	ID           int    `json:"id"`
	VideoKey     string `json:"video"`
	Language     string `json:"language"`
	LanguageName string `json:"language_name"`
	Filename     string `json:"filename"`
	S3ObjectKey  string `json:"s3_object_key"`
	BucketName   string `json:"bucket_name"`
	CreatedAt    string `json:"created_at"`
}

// SubtitleUpload is the multipart POST /api/v0/upload_subtitles/ request.
type SubtitleUpload struct {
	VideoKey string
	Language string
	Filename string
	Content  io.Reader
}

// VideoAnalytics mirrors the data envelope of /api/v0/videos/:key/analytics/.
type VideoAnalytics struct {
	VideoKey       string                    `json:"-"`
	IsMultichannel bool                      `json:"is_multichannel"`
	Channels       []string                  `json:"channels"`
	Times          []int                     `json:"times"`
	ViewsAtTimes   map[string]map[string]int `json:"views_at_times"`
}

// TotalViews sums the view counts of channel over every time bucket.
func (a VideoAnalytics) TotalViews(channel string) int {
	total := 0
	for _, byChannel := range a.ViewsAtTimes {
		total += byChannel[channel]
	}
	return total
}

// EdxEndpoint mirrors /api/v0/edx-endpoints/.
type EdxEndpoint struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	IsGlobal bool   `json:"is_global"`
}

// User mirrors /api/v0/users/.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PotentialOwner mirrors /api/v0/potential-owners/.
type PotentialOwner struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
