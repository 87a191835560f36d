package resources

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/ordered"
	"github.com/odlvideo/odlv/internal/rest"
)

// ErrBadBody is returned when a call carries a body of the wrong type.
var ErrBadBody = errors.New("unexpected request body")

// Keyed entity slices. Entities are stored by pointer so an upsert of one key
// leaves every other entry identical.
type (
	CollectionMap = ordered.Map[string, *odl.Collection]
	VideoMap      = ordered.Map[string, *odl.Video]
	SubtitleMap   = ordered.Map[int, *odl.Subtitle]
	AnalyticsMap  = ordered.Map[string, *odl.VideoAnalytics]
)

// Endpoints bundles the endpoint derived from every resource descriptor.
type Endpoints struct {
	Collections               *rest.Endpoint[CollectionMap]
	CollectionsList           *rest.Endpoint[[]odl.Collection]
	Videos                    *rest.Endpoint[VideoMap]
	VideoSubtitles            *rest.Endpoint[SubtitleMap]
	VideoAnalytics            *rest.Endpoint[AnalyticsMap]
	EdxEndpoints              *rest.Endpoint[[]odl.EdxEndpoint]
	Users                     *rest.Endpoint[[]odl.User]
	PotentialCollectionOwners *rest.Endpoint[[]odl.PotentialOwner]
}

// New derives every endpoint from its descriptor, bound to api.
func New(api odl.API) (*Endpoints, error) {
	if api == nil {
		return nil, fmt.Errorf("resources require an api client")
	}
	var (
		e   Endpoints
		err error
	)
	if e.Collections, err = rest.New(CollectionsDescriptor(api)); err != nil {
		return nil, err
	}
	if e.CollectionsList, err = rest.New(CollectionsListDescriptor(api)); err != nil {
		return nil, err
	}
	if e.Videos, err = rest.New(VideosDescriptor(api)); err != nil {
		return nil, err
	}
	if e.VideoSubtitles, err = rest.New(VideoSubtitlesDescriptor(api)); err != nil {
		return nil, err
	}
	if e.VideoAnalytics, err = rest.New(VideoAnalyticsDescriptor(api)); err != nil {
		return nil, err
	}
	if e.EdxEndpoints, err = rest.New(EdxEndpointsDescriptor(api)); err != nil {
		return nil, err
	}
	if e.Users, err = rest.New(UsersDescriptor(api)); err != nil {
		return nil, err
	}
	if e.PotentialCollectionOwners, err = rest.New(PotentialCollectionOwnersDescriptor(api)); err != nil {
		return nil, err
	}
	return &e, nil
}

// Types lists every action type reduced by the endpoints.
func (e *Endpoints) Types() []action.Type {
	var out []action.Type
	out = append(out, e.Collections.AllTypes()...)
	out = append(out, e.CollectionsList.AllTypes()...)
	out = append(out, e.Videos.AllTypes()...)
	out = append(out, e.VideoSubtitles.AllTypes()...)
	out = append(out, e.VideoAnalytics.AllTypes()...)
	out = append(out, e.EdxEndpoints.AllTypes()...)
	out = append(out, e.Users.AllTypes()...)
	out = append(out, e.PotentialCollectionOwners.AllTypes()...)
	return out
}

// CollectionsDescriptor caches single collections keyed by collection key.
func CollectionsDescriptor(api odl.API) rest.Descriptor[CollectionMap] {
	upsert := func(payload *odl.Collection, current CollectionMap) CollectionMap {
		return current.Upsert(payload.Key, payload)
	}
	return rest.Descriptor[CollectionMap]{
		Name: "collections",
		Ops: map[rest.Verb]rest.Op[CollectionMap]{
			rest.GET: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Collection, error) {
				return api.GetCollection(ctx, p.Key)
			}, upsert),
			rest.PATCH: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Collection, error) {
				body, ok := p.Body.(odl.CollectionUpdate)
				if !ok {
					return nil, badBody(p.Body)
				}
				return api.UpdateCollection(ctx, p.Key, body)
			}, upsert),
			rest.POST: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Collection, error) {
				body, ok := p.Body.(odl.NewCollection)
				if !ok {
					return nil, badBody(p.Body)
				}
				return api.CreateCollection(ctx, body)
			}, upsert),
		},
	}
}

// CollectionsListDescriptor holds the flat collection list. POST prepends
// the created collection instead of replacing the list.
func CollectionsListDescriptor(api odl.API) rest.Descriptor[[]odl.Collection] {
	return rest.Descriptor[[]odl.Collection]{
		Name: "collectionsList",
		Ops: map[rest.Verb]rest.Op[[]odl.Collection]{
			rest.GET: rest.Replace(func(ctx context.Context, p rest.Params) ([]odl.Collection, error) {
				page, _ := p.Body.(int)
				result, err := api.GetCollections(ctx, page)
				if err != nil {
					return nil, err
				}
				return result.Results, nil
			}),
			rest.POST: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Collection, error) {
				body, ok := p.Body.(odl.NewCollection)
				if !ok {
					return nil, badBody(p.Body)
				}
				return api.CreateCollection(ctx, body)
			}, Prepend),
		},
	}
}

// Prepend returns a new list with created in front of current.
func Prepend(created *odl.Collection, current []odl.Collection) []odl.Collection {
	out := make([]odl.Collection, 0, len(current)+1)
	out = append(out, *created)
	return append(out, current...)
}

// VideosDescriptor caches videos keyed by video key.
func VideosDescriptor(api odl.API) rest.Descriptor[VideoMap] {
	upsert := func(payload *odl.Video, current VideoMap) VideoMap {
		return current.Upsert(payload.Key, payload)
	}
	return rest.Descriptor[VideoMap]{
		Name: "videos",
		Ops: map[rest.Verb]rest.Op[VideoMap]{
			rest.GET: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Video, error) {
				return api.GetVideo(ctx, p.Key)
			}, upsert),
			rest.PATCH: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Video, error) {
				body, ok := p.Body.(odl.VideoUpdate)
				if !ok {
					return nil, badBody(p.Body)
				}
				return api.UpdateVideo(ctx, p.Key, body)
			}, upsert),
			rest.DELETE: rest.Merge(func(ctx context.Context, p rest.Params) (string, error) {
				if err := api.DeleteVideo(ctx, p.Key); err != nil {
					return "", err
				}
				return p.Key, nil
			}, func(key string, current VideoMap) VideoMap {
				return current.Delete(key)
			}),
		},
	}
}

// VideoSubtitlesDescriptor caches uploaded subtitles keyed by subtitle id.
func VideoSubtitlesDescriptor(api odl.API) rest.Descriptor[SubtitleMap] {
	return rest.Descriptor[SubtitleMap]{
		Name: "videoSubtitles",
		Ops: map[rest.Verb]rest.Op[SubtitleMap]{
			rest.POST: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.Subtitle, error) {
				body, ok := p.Body.(odl.SubtitleUpload)
				if !ok {
					return nil, badBody(p.Body)
				}
				return api.UploadSubtitle(ctx, body)
			}, func(payload *odl.Subtitle, current SubtitleMap) SubtitleMap {
				return current.Upsert(payload.ID, payload)
			}),
			rest.DELETE: rest.Merge(func(ctx context.Context, p rest.Params) (int, error) {
				id, err := strconv.Atoi(p.Key)
				if err != nil {
					return 0, fmt.Errorf("subtitle id %q: %w", p.Key, err)
				}
				if err := api.DeleteSubtitle(ctx, id); err != nil {
					return 0, err
				}
				return id, nil
			}, func(id int, current SubtitleMap) SubtitleMap {
				return current.Delete(id)
			}),
		},
	}
}

// VideoAnalyticsDescriptor caches analytics keyed by video key.
func VideoAnalyticsDescriptor(api odl.API) rest.Descriptor[AnalyticsMap] {
	return rest.Descriptor[AnalyticsMap]{
		Name: "videoAnalytics",
		Ops: map[rest.Verb]rest.Op[AnalyticsMap]{
			rest.GET: rest.Merge(func(ctx context.Context, p rest.Params) (*odl.VideoAnalytics, error) {
				return api.GetVideoAnalytics(ctx, p.Key)
			}, func(payload *odl.VideoAnalytics, current AnalyticsMap) AnalyticsMap {
				return current.Upsert(payload.VideoKey, payload)
			}),
		},
	}
}

// EdxEndpointsDescriptor lists edX endpoints.
func EdxEndpointsDescriptor(api odl.API) rest.Descriptor[[]odl.EdxEndpoint] {
	return rest.Descriptor[[]odl.EdxEndpoint]{
		Name: "edxEndpoints",
		Ops: map[rest.Verb]rest.Op[[]odl.EdxEndpoint]{
			rest.GET: rest.Replace(func(ctx context.Context, _ rest.Params) ([]odl.EdxEndpoint, error) {
				return api.GetEdxEndpoints(ctx)
			}),
		},
	}
}

// UsersDescriptor lists users.
func UsersDescriptor(api odl.API) rest.Descriptor[[]odl.User] {
	return rest.Descriptor[[]odl.User]{
		Name: "users",
		Ops: map[rest.Verb]rest.Op[[]odl.User]{
			rest.GET: rest.Replace(func(ctx context.Context, _ rest.Params) ([]odl.User, error) {
				return api.GetUsers(ctx)
			}),
		},
	}
}

// PotentialCollectionOwnersDescriptor lists users that may own a collection.
func PotentialCollectionOwnersDescriptor(api odl.API) rest.Descriptor[[]odl.PotentialOwner] {
	return rest.Descriptor[[]odl.PotentialOwner]{
		Name: "potentialCollectionOwners",
		Ops: map[rest.Verb]rest.Op[[]odl.PotentialOwner]{
			rest.GET: rest.Replace(func(ctx context.Context, _ rest.Params) ([]odl.PotentialOwner, error) {
				return api.GetPotentialCollectionOwners(ctx)
			}),
		},
	}
}

func badBody(body any) error {
	return fmt.Errorf("%w: %T", ErrBadBody, body)
}
