package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/metrics"
	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/resources"
	"github.com/odlvideo/odlv/internal/rest"
	"github.com/odlvideo/odlv/internal/toast"
)

// ErrDuplicateActionType is returned when two reducers derive the same type.
var ErrDuplicateActionType = errors.New("duplicate action type")

// Logger logs every action with its payload type and the store version it
// produced. The app installs it only in dev mode.
func Logger(logger zerolog.Logger) Middleware {
	return func(getState func() RootState, next DispatchFunc) DispatchFunc {
		return func(a action.Action) {
			next(a)
			ev := logger.Debug().
				Str("type", string(a.Type)).
				Str("payload", fmt.Sprintf("%T", a.Payload))
			if err, ok := a.Payload.(error); ok {
				ev = ev.AnErr("error", err)
			}
			st := getState()
			ev.Int("current_page", st.CollectionsPagination.CurrentPage).
				Int("cached_pages", len(st.CollectionsPagination.Pages)).
				Msg("action dispatched")
		}
	}
}

type fetchLabel struct {
	resource string
	verb     string
	outcome  string
}

// Metrics counts every action and classifies fetch transitions with index.
func Metrics(m *metrics.Metrics, index map[action.Type]fetchLabel) Middleware {
	return func(_ func() RootState, next DispatchFunc) DispatchFunc {
		return func(a action.Action) {
			next(a)
			m.IncAction(string(a.Type))
			if label, ok := index[a.Type]; ok {
				m.IncFetch(label.resource, label.verb, label.outcome)
			}
		}
	}
}

func fetchIndex(eps *resources.Endpoints) map[action.Type]fetchLabel {
	idx := make(map[action.Type]fetchLabel)
	indexEndpoint(idx, eps.Collections)
	indexEndpoint(idx, eps.CollectionsList)
	indexEndpoint(idx, eps.Videos)
	indexEndpoint(idx, eps.VideoSubtitles)
	indexEndpoint(idx, eps.VideoAnalytics)
	indexEndpoint(idx, eps.EdxEndpoints)
	indexEndpoint(idx, eps.Users)
	indexEndpoint(idx, eps.PotentialCollectionOwners)

	const pages = "collectionsPagination"
	idx[pagination.TypeRequestGetPage] = fetchLabel{pages, rest.GET.String(), metrics.OutcomeRequest}
	idx[pagination.TypeReceiveGetPageSuccess] = fetchLabel{pages, rest.GET.String(), metrics.OutcomeSuccess}
	idx[pagination.TypeReceiveGetPageFailure] = fetchLabel{pages, rest.GET.String(), metrics.OutcomeFailure}
	return idx
}

func indexEndpoint[T any](idx map[action.Type]fetchLabel, ep *rest.Endpoint[T]) {
	for _, verb := range ep.Verbs() {
		types, _ := ep.TypesFor(verb)
		idx[types.Request] = fetchLabel{ep.Name(), verb.String(), metrics.OutcomeRequest}
		idx[types.Success] = fetchLabel{ep.Name(), verb.String(), metrics.OutcomeSuccess}
		idx[types.Failure] = fetchLabel{ep.Name(), verb.String(), metrics.OutcomeFailure}
	}
}

func checkTypes(eps *resources.Endpoints) error {
	seen := make(map[action.Type]int)
	all := append(eps.Types(), pagination.Types()...)
	all = append(all, toast.Types()...)
	for _, t := range all {
		seen[t]++
	}
	var dups []string
	for t, n := range seen {
		if n > 1 {
			dups = append(dups, string(t))
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return fmt.Errorf("%w: %v", ErrDuplicateActionType, dups)
	}
	return nil
}
