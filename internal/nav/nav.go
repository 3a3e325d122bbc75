// Package nav models client-side navigation as explicit route values. URL
// shapes map to typed routes, sibling navigation inherits the enclosing
// event identifier, and fetch failures resolve to terminal destinations.
package nav

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mikaelhatanpaa/eventline/internal/eventclient"
	"github.com/mikaelhatanpaa/eventline/internal/model"
)

type RouteKind int

const (
	KindList RouteKind = iota
	KindEventDetail
	KindNotFound
	KindNetworkError
)

// ChildView selects which nested view of a detail route is active.
type ChildView string

const (
	ChildDetail   ChildView = ""
	ChildRegister ChildView = "register"
	ChildEdit     ChildView = "edit"
)

type Route struct {
	Kind         RouteKind
	EventID      string
	Child        ChildView
	Page         int
	ResourceKind model.ResourceKind
}

const (
	NetworkErrorPath = "/network-error"
	notFoundPrefix   = "/not-found/"
	eventsPrefix     = "/events/"
	legacyPrefix     = "/event/"
)

// ResourcePage marks unmatched paths on the not-found screen.
const ResourcePage model.ResourceKind = "page"

// Parse maps a path plus query to a route. Unknown shapes resolve to the
// not-found route rather than an error. The legacy /event/{id}... shape is
// rewritten to /events/{id}... with the identifier and tail preserved.
func Parse(path string, query url.Values) Route {
	path = normalizePath(path)

	if path == "/" || path == "" {
		return Route{Kind: KindList, Page: parsePage(query.Get("page"))}
	}
	if path == NetworkErrorPath {
		return Route{Kind: KindNetworkError}
	}
	if rest, ok := strings.CutPrefix(path, notFoundPrefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return Route{Kind: KindNotFound, ResourceKind: model.ResourceKind(rest)}
	}
	if rest, ok := strings.CutPrefix(path, legacyPrefix); ok {
		return Parse(eventsPrefix+rest, query)
	}
	if rest, ok := strings.CutPrefix(path, eventsPrefix); ok {
		return parseDetail(rest)
	}
	return Route{Kind: KindNotFound, ResourceKind: ResourcePage}
}

func parseDetail(rest string) Route {
	parts := strings.Split(rest, "/")
	id, err := url.PathUnescape(parts[0])
	if err != nil || strings.TrimSpace(id) == "" {
		return Route{Kind: KindNotFound, ResourceKind: ResourcePage}
	}
	route := Route{Kind: KindEventDetail, EventID: id, Child: ChildDetail}
	if len(parts) == 1 {
		return route
	}
	if len(parts) == 2 {
		switch ChildView(parts[1]) {
		case ChildRegister:
			route.Child = ChildRegister
			return route
		case ChildEdit:
			route.Child = ChildEdit
			return route
		}
	}
	return Route{Kind: KindNotFound, ResourceKind: ResourcePage}
}

// Path renders the canonical path for a route. The inverse of Parse for
// well-formed routes.
func Path(r Route) string {
	switch r.Kind {
	case KindList:
		if r.Page > 1 {
			return "/?page=" + strconv.Itoa(r.Page)
		}
		return "/"
	case KindEventDetail:
		p := eventsPrefix + url.PathEscape(r.EventID)
		if r.Child != ChildDetail {
			p += "/" + string(r.Child)
		}
		return p
	case KindNotFound:
		kind := r.ResourceKind
		if kind == "" {
			kind = ResourcePage
		}
		return notFoundPrefix + url.PathEscape(string(kind))
	case KindNetworkError:
		return NetworkErrorPath
	}
	return "/"
}

// Params are the navigation parameters a caller may pass explicitly when
// requesting a sibling route.
type Params struct {
	EventID string
}

// ResolveParams implements the default-inheritance contract: an explicit
// identifier wins, otherwise the enclosing route's identifier carries over.
func ResolveParams(explicit Params, current Route) Params {
	if strings.TrimSpace(explicit.EventID) != "" {
		return Params{EventID: strings.TrimSpace(explicit.EventID)}
	}
	return Params{EventID: current.EventID}
}

// Sibling builds a navigation request from one nested child view to another
// within the same detail nest, applying ResolveParams at the call site.
func Sibling(current Route, child ChildView, explicit Params) Route {
	params := ResolveParams(explicit, current)
	return Route{Kind: KindEventDetail, EventID: params.EventID, Child: child}
}

// FailureRoute is the error redirector: a classified fetch failure resolves
// to exactly one terminal destination. One-shot, no retry.
func FailureRoute(err error, kind model.ResourceKind) Route {
	if eventclient.IsNotFound(err) {
		return Route{Kind: KindNotFound, ResourceKind: kind}
	}
	return Route{Kind: KindNetworkError}
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
