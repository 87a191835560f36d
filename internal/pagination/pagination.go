package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/odl"
)

// Status is the load state of one page.
type Status string

const (
	StatusLoading Status = "LOADING"
	StatusLoaded  Status = "LOADED"
	StatusError   Status = "ERROR"
)

// Action types of the collections pagination cache.
const (
	TypeRequestGetPage        action.Type = "COLLECTIONS_PAGINATION_REQUEST_GET_PAGE"
	TypeReceiveGetPageSuccess action.Type = "COLLECTIONS_PAGINATION_RECEIVE_GET_PAGE_SUCCESS"
	TypeReceiveGetPageFailure action.Type = "COLLECTIONS_PAGINATION_RECEIVE_GET_PAGE_FAILURE"
	TypeSetCurrentPage        action.Type = "COLLECTIONS_PAGINATION_SET_CURRENT_PAGE"
)

// Types lists every action type the cache reduces.
func Types() []action.Type {
	return []action.Type{TypeRequestGetPage, TypeReceiveGetPageSuccess, TypeReceiveGetPageFailure, TypeSetCurrentPage}
}

// Page is the cached entry of one page number.
type Page struct {
	Status      Status
	Collections []odl.Collection
	StartIndex  int
	EndIndex    int
	Error       error
}

// State is the page-indexed cache. A page number missing from Pages has
// never been requested. Pages is replaced, never mutated, on every change.
type State struct {
	Count       int
	NumPages    int
	CurrentPage int
	Pages       map[int]Page
}

// InitialState starts on page 1 with nothing loaded.
func InitialState() State {
	return State{CurrentPage: 1, Pages: map[int]Page{}}
}

// Page returns the entry for page n.
func (s State) Page(n int) (Page, bool) {
	p, ok := s.Pages[n]
	return p, ok
}

// Current returns the entry for the current page.
func (s State) Current() (Page, bool) {
	return s.Page(s.CurrentPage)
}

// NeedsFetch reports whether page n has never been requested.
func NeedsFetch(s State, n int) bool {
	_, ok := s.Pages[n]
	return !ok
}

// RequestPayload is carried by TypeRequestGetPage.
type RequestPayload struct {
	Page int
}

// SuccessPayload is carried by TypeReceiveGetPageSuccess.
type SuccessPayload struct {
	Page        int
	Count       int
	NumPages    int
	Collections []odl.Collection
	StartIndex  int
	EndIndex    int
}

// FailurePayload is carried by TypeReceiveGetPageFailure.
type FailurePayload struct {
	Page  int
	Error error
}

// SetCurrentPagePayload is carried by TypeSetCurrentPage.
type SetCurrentPagePayload struct {
	CurrentPage int
}

// RequestGetPage builds the request action for page.
func RequestGetPage(page int) action.Action {
	return action.Action{Type: TypeRequestGetPage, Payload: RequestPayload{Page: page}}
}

// ReceiveGetPageSuccess builds the success action.
func ReceiveGetPageSuccess(p SuccessPayload) action.Action {
	return action.Action{Type: TypeReceiveGetPageSuccess, Payload: p}
}

// ReceiveGetPageFailure builds the failure action.
func ReceiveGetPageFailure(page int, err error) action.Action {
	return action.Action{Type: TypeReceiveGetPageFailure, Payload: FailurePayload{Page: page, Error: err}}
}

// SetCurrentPage builds the navigation action.
func SetCurrentPage(page int) action.Action {
	return action.Action{Type: TypeSetCurrentPage, Payload: SetCurrentPagePayload{CurrentPage: page}}
}

// Reduce applies a to s. Unknown action types return s unchanged.
func Reduce(s State, a action.Action) State {
	switch a.Type {
	case TypeRequestGetPage:
		p, ok := a.Payload.(RequestPayload)
		if !ok {
			return s
		}
		entry := s.Pages[p.Page]
		entry.Status = StatusLoading
		s.Pages = withPage(s.Pages, p.Page, entry)
	case TypeReceiveGetPageSuccess:
		p, ok := a.Payload.(SuccessPayload)
		if !ok {
			return s
		}
		s.Count = p.Count
		s.NumPages = p.NumPages
		s.Pages = withPage(s.Pages, p.Page, Page{
			Status:      StatusLoaded,
			Collections: p.Collections,
			StartIndex:  p.StartIndex,
			EndIndex:    p.EndIndex,
		})
	case TypeReceiveGetPageFailure:
		p, ok := a.Payload.(FailurePayload)
		if !ok {
			return s
		}
		entry := s.Pages[p.Page]
		entry.Status = StatusError
		entry.Error = p.Error
		s.Pages = withPage(s.Pages, p.Page, entry)
	case TypeSetCurrentPage:
		p, ok := a.Payload.(SetCurrentPagePayload)
		if !ok {
			return s
		}
		s.CurrentPage = p.CurrentPage
	}
	return s
}

func withPage(pages map[int]Page, n int, entry Page) map[int]Page {
	out := make(map[int]Page, len(pages)+1)
	for k, v := range pages {
		out[k] = v
	}
	out[n] = entry
	return out
}

// PageFetcher loads one page of collections.
type PageFetcher interface {
	GetCollections(ctx context.Context, page int) (*odl.CollectionsPage, error)
}

// ErrInvalidPage is returned for page numbers below 1.
var ErrInvalidPage = errors.New("page numbers start at 1")

// GetPage dispatches the request for page and loads it in the background.
// Failures land in the page entry; the task never returns them.
func GetPage(ctx context.Context, d action.Dispatcher, f PageFetcher, page int) (*action.Task, error) {
	if page < 1 {
		return nil, fmt.Errorf("get page %d: %w", page, ErrInvalidPage)
	}
	return action.Run(ctx, d, action.Lifecycle{
		Request: RequestGetPage(page),
		Fetch: func(ctx context.Context) (any, error) {
			result, err := f.GetCollections(ctx, page)
			if err != nil {
				return nil, err
			}
			return SuccessPayload{
				Page:        page,
				Count:       result.Count,
				NumPages:    result.NumPages,
				Collections: result.Results,
				StartIndex:  result.StartIndex,
				EndIndex:    result.EndIndex,
			}, nil
		},
		Success: func(payload any) action.Action {
			return ReceiveGetPageSuccess(payload.(SuccessPayload))
		},
		Failure: func(err error) action.Action {
			return ReceiveGetPageFailure(page, err)
		},
	}), nil
}
