package eventclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikaelhatanpaa/eventline/internal/api"
	"github.com/mikaelhatanpaa/eventline/internal/model"
)

func wireEvent(id, title string) api.EventItem {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
	return api.EventItem{
		EventID:   id,
		Title:     title,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFetchPageParsesItemsAndTotalCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Fatalf("expected page 2, got %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "2" {
			t.Fatalf("expected page_size 2, got %q", got)
		}
		w.Header().Set(api.TotalCountHeader, "5")
		_ = json.NewEncoder(w).Encode([]api.EventItem{wireEvent("ev-3", "Third"), wireEvent("ev-4", "Fourth")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	page, err := client.FetchPage(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if page.TotalCount != 5 {
		t.Fatalf("expected total count 5, got %d", page.TotalCount)
	}
	if len(page.Items) != 2 || page.Items[0].EventID != "ev-3" || page.Items[1].EventID != "ev-4" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
}

func TestFetchPageNormalizesInvalidPageNumber(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Fatalf("expected normalized page 1, got %q", got)
		}
		w.Header().Set(api.TotalCountHeader, "0")
		_ = json.NewEncoder(w).Encode([]api.EventItem{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	page, err := client.FetchPage(context.Background(), 2, -3)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(page.Items) != 0 || page.TotalCount != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestFetchPageMissingTotalCountHeaderIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.EventItem{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	_, err := client.FetchPage(context.Background(), 2, 1)
	if err == nil {
		t.Fatal("expected error for missing total-count header")
	}
	if Classify(err) != KindNetworkOrOther {
		t.Fatalf("missing header must classify as NetworkOrOther, got %v", Classify(err))
	}
}

func TestGetEventNotFoundClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"schema_version":"v1","generated_at":"2026-06-01T00:00:00Z","error":{"code":"E_EVENT_NOT_FOUND","message":"event not found"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	_, err := client.GetEvent(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for missing event")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected NotFound classification, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != model.ErrEventNotFound {
		t.Fatalf("expected typed request error with code, got %v", err)
	}
}

func TestServerErrorClassifiesAsNetworkOrOther(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	_, err := client.GetEvent(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if Classify(err) != KindNetworkOrOther {
		t.Fatalf("expected NetworkOrOther classification, got %v", Classify(err))
	}
}

func TestTransportFailureClassifiesAsNetworkOrOther(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	srv.Close()

	client := New(srv.URL)
	_, err := client.GetEvent(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if Classify(err) != KindNetworkOrOther {
		t.Fatalf("expected NetworkOrOther classification, got %v", Classify(err))
	}
}

func TestFetchPageIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(api.TotalCountHeader, "3")
		_ = json.NewEncoder(w).Encode([]api.EventItem{wireEvent("ev-1", "First"), wireEvent("ev-2", "Second")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	first, err := client.FetchPage(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := client.FetchPage(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first.TotalCount != second.TotalCount || len(first.Items) != len(second.Items) {
		t.Fatalf("repeated fetch diverged: %+v vs %+v", first, second)
	}
	for i := range first.Items {
		if first.Items[i].EventID != second.Items[i].EventID {
			t.Fatalf("item %d diverged: %s vs %s", i, first.Items[i].EventID, second.Items[i].EventID)
		}
	}
}

func TestWithUnaryTimeoutReturnsClonedClient(t *testing.T) {
	base := NewWithClient("http://example.invalid", &http.Client{})
	updated := base.WithUnaryTimeout(25 * time.Millisecond)
	if updated == base {
		t.Fatalf("expected cloned client instance")
	}
	if base.unaryTimeout != defaultUnaryTimeout {
		t.Fatalf("expected original timeout unchanged, got %s", base.unaryTimeout)
	}
	if updated.unaryTimeout != 25*time.Millisecond {
		t.Fatalf("expected updated timeout, got %s", updated.unaryTimeout)
	}
}

func TestUnaryTimeoutBoundsSlowRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(150 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(wireEvent("ev-1", "First"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client()).WithUnaryTimeout(20 * time.Millisecond)
	start := time.Now()
	_, err := client.GetEvent(context.Background(), "ev-1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline exceeded, got %v", err)
	}
	if time.Since(start) > 120*time.Millisecond {
		t.Fatalf("timeout should happen quickly, elapsed=%s", time.Since(start))
	}
}

func TestRegisterPostsBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events/ev-1/registrations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var req api.CreateRegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.AttendeeName != "Ada" || req.AttendeeEmail != "ada@example.com" {
			t.Fatalf("unexpected body: %+v", req)
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.RegistrationItem{
			RegistrationID: "reg-1",
			EventID:        "ev-1",
			AttendeeName:   req.AttendeeName,
			AttendeeEmail:  req.AttendeeEmail,
			CreatedAt:      now,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWithClient(srv.URL, srv.Client())
	reg, err := client.Register(context.Background(), "ev-1", api.CreateRegistrationRequest{
		AttendeeName:  "Ada",
		AttendeeEmail: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.RegistrationID != "reg-1" || reg.EventID != "ev-1" {
		t.Fatalf("unexpected registration: %+v", reg)
	}
}
