package nav

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/mikaelhatanpaa/eventline/internal/eventclient"
	"github.com/mikaelhatanpaa/eventline/internal/model"
)

func TestParseListRoute(t *testing.T) {
	route := Parse("/", url.Values{})
	if route.Kind != KindList || route.Page != 1 {
		t.Fatalf("unexpected route: %+v", route)
	}

	route = Parse("/", url.Values{"page": []string{"3"}})
	if route.Kind != KindList || route.Page != 3 {
		t.Fatalf("unexpected route: %+v", route)
	}
}

func TestParseListRouteInvalidPageDefaultsToOne(t *testing.T) {
	for _, raw := range []string{"", "0", "-2", "abc", "1.5"} {
		route := Parse("/", url.Values{"page": []string{raw}})
		if route.Page != 1 {
			t.Errorf("page %q: expected default 1, got %d", raw, route.Page)
		}
	}
}

func TestParseDetailRoutes(t *testing.T) {
	cases := []struct {
		path  string
		child ChildView
	}{
		{"/events/42", ChildDetail},
		{"/events/42/register", ChildRegister},
		{"/events/42/edit", ChildEdit},
	}
	for _, tc := range cases {
		route := Parse(tc.path, url.Values{})
		if route.Kind != KindEventDetail || route.EventID != "42" || route.Child != tc.child {
			t.Errorf("path %s: unexpected route %+v", tc.path, route)
		}
	}
}

func TestParseLegacyPathPreservesIdentifierAndTail(t *testing.T) {
	route := Parse("/event/42/edit", url.Values{})
	if route.Kind != KindEventDetail || route.EventID != "42" || route.Child != ChildEdit {
		t.Fatalf("legacy path not rewritten: %+v", route)
	}
	if got := Path(route); got != "/events/42/edit" {
		t.Fatalf("expected canonical path /events/42/edit, got %s", got)
	}

	bare := Parse("/event/42", url.Values{})
	if bare.Kind != KindEventDetail || bare.EventID != "42" || bare.Child != ChildDetail {
		t.Fatalf("legacy bare path not rewritten: %+v", bare)
	}
}

func TestParseUnmatchedPathIsNotFound(t *testing.T) {
	for _, path := range []string{"/nope", "/events", "/events/42/unknown", "/events//register", "/not-found/event/extra"} {
		route := Parse(path, url.Values{})
		if route.Kind != KindNotFound {
			t.Errorf("path %s: expected not-found, got %+v", path, route)
		}
	}
}

func TestParseTerminalRoutes(t *testing.T) {
	route := Parse("/not-found/event", url.Values{})
	if route.Kind != KindNotFound || route.ResourceKind != model.ResourceEvent {
		t.Fatalf("unexpected route: %+v", route)
	}
	route = Parse("/network-error", url.Values{})
	if route.Kind != KindNetworkError {
		t.Fatalf("unexpected route: %+v", route)
	}
}

func TestPathRoundtrip(t *testing.T) {
	routes := []Route{
		{Kind: KindList, Page: 1},
		{Kind: KindList, Page: 4},
		{Kind: KindEventDetail, EventID: "42"},
		{Kind: KindEventDetail, EventID: "42", Child: ChildRegister},
		{Kind: KindEventDetail, EventID: "42", Child: ChildEdit},
		{Kind: KindNotFound, ResourceKind: model.ResourceEvent},
		{Kind: KindNetworkError},
	}
	for _, want := range routes {
		raw := Path(want)
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("path %s: %v", raw, err)
		}
		got := Parse(u.Path, u.Query())
		if got != want {
			t.Errorf("roundtrip %s: got %+v, want %+v", raw, got, want)
		}
	}
}

func TestSiblingInheritsEnclosingIdentifier(t *testing.T) {
	current := Parse("/events/42", url.Values{})
	sibling := Sibling(current, ChildRegister, Params{})
	if got := Path(sibling); got != "/events/42/register" {
		t.Fatalf("expected /events/42/register, got %s", got)
	}
}

func TestSiblingExplicitIdentifierOverrides(t *testing.T) {
	current := Parse("/events/42", url.Values{})
	sibling := Sibling(current, ChildEdit, Params{EventID: "99"})
	if got := Path(sibling); got != "/events/99/edit" {
		t.Fatalf("expected /events/99/edit, got %s", got)
	}
}

func TestFailureRouteClassification(t *testing.T) {
	notFound := &eventclient.RequestError{StatusCode: http.StatusNotFound, Code: model.ErrEventNotFound, Message: "event not found"}
	route := FailureRoute(notFound, model.ResourceEvent)
	if route.Kind != KindNotFound || route.ResourceKind != model.ResourceEvent {
		t.Fatalf("expected not-found redirect, got %+v", route)
	}
	if got := Path(route); got != "/not-found/event" {
		t.Fatalf("expected /not-found/event, got %s", got)
	}

	serverErr := &eventclient.RequestError{StatusCode: http.StatusBadGateway, Message: "boom"}
	route = FailureRoute(serverErr, model.ResourceEvent)
	if route.Kind != KindNetworkError {
		t.Fatalf("expected network-error redirect, got %+v", route)
	}
}
