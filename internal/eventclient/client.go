package eventclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikaelhatanpaa/eventline/internal/api"
	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/pagination"
)

const defaultUnaryTimeout = 10 * time.Second

type Client struct {
	baseURL      string
	client       *http.Client
	unaryTimeout time.Duration
}

func New(baseURL string) *Client {
	return NewWithClient(baseURL, nil)
}

func NewWithClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       client,
		unaryTimeout: defaultUnaryTimeout,
	}
}

func (c *Client) WithUnaryTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.unaryTimeout = timeout
	return &clone
}

// Kind is the failure taxonomy of the fetch path. Every error falls into
// exactly one of two kinds.
type Kind int

const (
	KindNetworkOrOther Kind = iota
	KindNotFound
)

type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	message := strings.TrimSpace(e.Message)
	if code != "" && message != "" {
		return fmt.Sprintf("%s: %s", code, message)
	}
	if code != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("http %d: %s", e.StatusCode, code)
		}
		return code
	}
	if message != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("http %d: %s", e.StatusCode, message)
		}
		return message
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return "http error"
}

// Classify maps any fetch error to the two-kind taxonomy: a 404 or an
// explicit E_EVENT_NOT_FOUND code is NotFound, everything else (transport
// failure, 5xx, malformed body, timeout) is NetworkOrOther.
func Classify(err error) Kind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode == http.StatusNotFound || reqErr.Code == model.ErrEventNotFound {
			return KindNotFound
		}
	}
	return KindNetworkOrOther
}

func IsNotFound(err error) bool {
	return err != nil && Classify(err) == KindNotFound
}

// FetchPage returns one catalog page plus the catalog-wide total count read
// from the X-Total-Count header. A page number below 1 is treated as 1.
func (c *Client) FetchPage(ctx context.Context, pageSize, pageNumber int) (model.Page, error) {
	pageNumber = pagination.Normalize(pageNumber)
	if pageSize < 1 {
		return model.Page{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(pageNumber))
	query.Set("page_size", strconv.Itoa(pageSize))
	body, header, err := c.request(ctx, http.MethodGet, "/v1/events", query, nil)
	if err != nil {
		return model.Page{}, err
	}
	var items []api.EventItem
	if err := json.Unmarshal(body, &items); err != nil {
		return model.Page{}, &RequestError{Message: fmt.Sprintf("decode events page: %v", err)}
	}
	rawTotal := strings.TrimSpace(header.Get(api.TotalCountHeader))
	total, err := strconv.ParseInt(rawTotal, 10, 64)
	if err != nil || total < 0 {
		return model.Page{}, &RequestError{Message: fmt.Sprintf("invalid %s header: %q", api.TotalCountHeader, rawTotal)}
	}
	events := make([]model.Event, 0, len(items))
	for _, item := range items {
		ev, err := eventFromItem(item)
		if err != nil {
			return model.Page{}, &RequestError{Message: err.Error()}
		}
		events = append(events, ev)
	}
	return model.Page{Items: events, TotalCount: total}, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return model.Event{}, fmt.Errorf("event id is required")
	}
	body, _, err := c.request(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return model.Event{}, err
	}
	var item api.EventItem
	if err := json.Unmarshal(body, &item); err != nil {
		return model.Event{}, &RequestError{Message: fmt.Sprintf("decode event: %v", err)}
	}
	return eventFromItem(item)
}

func (c *Client) CreateEvent(ctx context.Context, req api.CreateEventRequest) (model.Event, error) {
	body, _, err := c.request(ctx, http.MethodPost, "/v1/events", nil, req)
	if err != nil {
		return model.Event{}, err
	}
	var item api.EventItem
	if err := json.Unmarshal(body, &item); err != nil {
		return model.Event{}, &RequestError{Message: fmt.Sprintf("decode created event: %v", err)}
	}
	return eventFromItem(item)
}

func (c *Client) UpdateEvent(ctx context.Context, eventID string, req api.UpdateEventRequest) (model.Event, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return model.Event{}, fmt.Errorf("event id is required")
	}
	body, _, err := c.request(ctx, http.MethodPut, "/v1/events/"+url.PathEscape(id), nil, req)
	if err != nil {
		return model.Event{}, err
	}
	var item api.EventItem
	if err := json.Unmarshal(body, &item); err != nil {
		return model.Event{}, &RequestError{Message: fmt.Sprintf("decode updated event: %v", err)}
	}
	return eventFromItem(item)
}

func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return fmt.Errorf("event id is required")
	}
	_, _, err := c.request(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) Register(ctx context.Context, eventID string, req api.CreateRegistrationRequest) (model.Registration, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return model.Registration{}, fmt.Errorf("event id is required")
	}
	body, _, err := c.request(ctx, http.MethodPost, "/v1/events/"+url.PathEscape(id)+"/registrations", nil, req)
	if err != nil {
		return model.Registration{}, err
	}
	var item api.RegistrationItem
	if err := json.Unmarshal(body, &item); err != nil {
		return model.Registration{}, &RequestError{Message: fmt.Sprintf("decode registration: %v", err)}
	}
	return registrationFromItem(item)
}

func (c *Client) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	body, _, err := c.request(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id)+"/registrations", nil, nil)
	if err != nil {
		return nil, err
	}
	var env api.RegistrationsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("decode registrations envelope: %v", err)}
	}
	regs := make([]model.Registration, 0, len(env.Registrations))
	for _, item := range env.Registrations {
		reg, err := registrationFromItem(item)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	body, _, err := c.request(ctx, http.MethodGet, "/v1/health", nil, nil)
	if err != nil {
		return api.HealthResponse{}, err
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return api.HealthResponse{}, &RequestError{Message: fmt.Sprintf("decode health response: %v", err)}
	}
	return resp, nil
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, http.Header, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	reqCtx := ctx
	if c.unaryTimeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > c.unaryTimeout {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.unaryTimeout)
			defer cancel()
		}
	}
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(reqCtx, method, u, reqBody)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 400 {
		var er api.ErrorResponse
		if err := json.Unmarshal(payload, &er); err == nil && er.Error.Code != "" {
			return nil, nil, &RequestError{
				StatusCode: resp.StatusCode,
				Code:       er.Error.Code,
				Message:    er.Error.Message,
			}
		}
		return nil, nil, &RequestError{
			StatusCode: resp.StatusCode,
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    strings.TrimSpace(string(payload)),
		}
	}
	return payload, resp.Header, nil
}

func eventFromItem(item api.EventItem) (model.Event, error) {
	date, err := parseWireTime("date", item.Date)
	if err != nil {
		return model.Event{}, err
	}
	created, err := parseWireTime("created_at", item.CreatedAt)
	if err != nil {
		return model.Event{}, err
	}
	updated, err := parseWireTime("updated_at", item.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		EventID:     item.EventID,
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
		Organizer:   item.Organizer,
		Date:        date,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func registrationFromItem(item api.RegistrationItem) (model.Registration, error) {
	created, err := parseWireTime("created_at", item.CreatedAt)
	if err != nil {
		return model.Registration{}, err
	}
	return model.Registration{
		RegistrationID: item.RegistrationID,
		EventID:        item.EventID,
		AttendeeName:   item.AttendeeName,
		AttendeeEmail:  item.AttendeeEmail,
		CreatedAt:      created,
	}, nil
}

func parseWireTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &RequestError{Message: fmt.Sprintf("invalid %s timestamp: %q", field, raw)}
	}
	return t, nil
}
