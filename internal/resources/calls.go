package resources

import (
	"context"
	"strconv"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/rest"
)

// The helpers below are typed wrappers over Endpoint.Do. Unless a descriptor
// propagates failures, a failed fetch returns the zero payload and a nil
// error; the failure is recorded in the resource's State.Error.

// GetCollection fetches one collection into the collections slice.
func (e *Endpoints) GetCollection(ctx context.Context, d action.Dispatcher, key string) (*odl.Collection, error) {
	return payloadAs[*odl.Collection](e.Collections.Do(ctx, d, rest.GET, rest.Params{Key: key}))
}

// UpdateCollection patches a collection and upserts the result.
func (e *Endpoints) UpdateCollection(ctx context.Context, d action.Dispatcher, key string, body odl.CollectionUpdate) (*odl.Collection, error) {
	return payloadAs[*odl.Collection](e.Collections.Do(ctx, d, rest.PATCH, rest.Params{Key: key, Body: body}))
}

// CreateCollection creates a collection through the collection list so the
// new entry is prepended there.
func (e *Endpoints) CreateCollection(ctx context.Context, d action.Dispatcher, body odl.NewCollection) (*odl.Collection, error) {
	return payloadAs[*odl.Collection](e.CollectionsList.Do(ctx, d, rest.POST, rest.Params{Body: body}))
}

// GetCollectionsList loads the first page of collections into the flat list.
func (e *Endpoints) GetCollectionsList(ctx context.Context, d action.Dispatcher) ([]odl.Collection, error) {
	return payloadAs[[]odl.Collection](e.CollectionsList.Do(ctx, d, rest.GET, rest.Params{}))
}

// GetVideo fetches one video.
func (e *Endpoints) GetVideo(ctx context.Context, d action.Dispatcher, key string) (*odl.Video, error) {
	return payloadAs[*odl.Video](e.Videos.Do(ctx, d, rest.GET, rest.Params{Key: key}))
}

// UpdateVideo patches a video.
func (e *Endpoints) UpdateVideo(ctx context.Context, d action.Dispatcher, key string, body odl.VideoUpdate) (*odl.Video, error) {
	return payloadAs[*odl.Video](e.Videos.Do(ctx, d, rest.PATCH, rest.Params{Key: key, Body: body}))
}

// DeleteVideo deletes a video and drops it from the videos slice.
func (e *Endpoints) DeleteVideo(ctx context.Context, d action.Dispatcher, key string) error {
	_, err := e.Videos.Do(ctx, d, rest.DELETE, rest.Params{Key: key})
	return err
}

// UploadSubtitle uploads a subtitle file.
func (e *Endpoints) UploadSubtitle(ctx context.Context, d action.Dispatcher, upload odl.SubtitleUpload) (*odl.Subtitle, error) {
	return payloadAs[*odl.Subtitle](e.VideoSubtitles.Do(ctx, d, rest.POST, rest.Params{Key: upload.VideoKey, Body: upload}))
}

// DeleteSubtitle deletes a subtitle. The returned bool reports whether the
// delete succeeded, since failures are not returned as errors.
func (e *Endpoints) DeleteSubtitle(ctx context.Context, d action.Dispatcher, id int) (bool, error) {
	payload, err := e.VideoSubtitles.Do(ctx, d, rest.DELETE, rest.Params{Key: strconv.Itoa(id)})
	if err != nil {
		return false, err
	}
	_, ok := payload.(int)
	return ok, nil
}

// GetVideoAnalytics fetches analytics for a video.
func (e *Endpoints) GetVideoAnalytics(ctx context.Context, d action.Dispatcher, key string) (*odl.VideoAnalytics, error) {
	return payloadAs[*odl.VideoAnalytics](e.VideoAnalytics.Do(ctx, d, rest.GET, rest.Params{Key: key}))
}

// GetEdxEndpoints loads the edX endpoint list.
func (e *Endpoints) GetEdxEndpoints(ctx context.Context, d action.Dispatcher) ([]odl.EdxEndpoint, error) {
	return payloadAs[[]odl.EdxEndpoint](e.EdxEndpoints.Do(ctx, d, rest.GET, rest.Params{}))
}

// GetUsers loads the user list.
func (e *Endpoints) GetUsers(ctx context.Context, d action.Dispatcher) ([]odl.User, error) {
	return payloadAs[[]odl.User](e.Users.Do(ctx, d, rest.GET, rest.Params{}))
}

// GetPotentialCollectionOwners loads the potential owner list.
func (e *Endpoints) GetPotentialCollectionOwners(ctx context.Context, d action.Dispatcher) ([]odl.PotentialOwner, error) {
	return payloadAs[[]odl.PotentialOwner](e.PotentialCollectionOwners.Do(ctx, d, rest.GET, rest.Params{}))
}

func payloadAs[P any](payload any, err error) (P, error) {
	var zero P
	if err != nil {
		return zero, err
	}
	typed, ok := payload.(P)
	if !ok {
		return zero, nil
	}
	return typed, nil
}
