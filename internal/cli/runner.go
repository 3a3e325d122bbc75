package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mikaelhatanpaa/eventline/internal/api"
	"github.com/mikaelhatanpaa/eventline/internal/config"
	"github.com/mikaelhatanpaa/eventline/internal/eventclient"
	"github.com/mikaelhatanpaa/eventline/internal/listview"
	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/pagination"
	"github.com/mikaelhatanpaa/eventline/internal/tui"
)

type Runner struct {
	client *eventclient.Client
	cfg    config.Config
	out    io.Writer
	errOut io.Writer
}

func NewRunner(cfg config.Config, out, errOut io.Writer) *Runner {
	client := eventclient.New(cfg.BaseURL).WithUnaryTimeout(cfg.RequestTimeout)
	return NewRunnerWithClient(cfg, client, out, errOut)
}

func NewRunnerWithClient(cfg config.Config, client *eventclient.Client, out, errOut io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if client == nil {
		client = eventclient.New(cfg.BaseURL).WithUnaryTimeout(cfg.RequestTimeout)
	}
	return &Runner{
		client: client,
		cfg:    cfg,
		out:    out,
		errOut: errOut,
	}
}

func (r *Runner) Run(ctx context.Context, args []string) int {
	serverURL, rest, err := parseGlobalArgs(args)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if serverURL != "" {
		r.cfg.BaseURL = serverURL
		r.client = eventclient.New(serverURL).WithUnaryTimeout(r.cfg.RequestTimeout)
	}
	if len(rest) == 0 {
		r.printUsage()
		return 2
	}
	switch rest[0] {
	case "events":
		return r.runEvents(ctx, rest[1:])
	case "register":
		return r.runRegister(ctx, rest[1:])
	case "browse":
		return r.runBrowse(ctx)
	case "health":
		return r.runHealth(ctx)
	default:
		_, _ = fmt.Fprintf(r.errOut, "unknown command: %s\n", rest[0])
		r.printUsage()
		return 2
	}
}

func (r *Runner) runEvents(ctx context.Context, args []string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline events <list|show|create|edit|delete|registrations>")
		return 2
	}
	switch args[0] {
	case "list":
		return r.runEventsList(ctx, args[1:])
	case "show":
		return r.runEventsShow(ctx, args[1:])
	case "create":
		return r.runEventsCreate(ctx, args[1:])
	case "edit":
		return r.runEventsEdit(ctx, args[1:])
	case "delete":
		return r.runEventsDelete(ctx, args[1:])
	case "registrations":
		return r.runEventsRegistrations(ctx, args[1:])
	default:
		_, _ = fmt.Fprintf(r.errOut, "unknown events subcommand: %s\n", args[0])
		return 2
	}
}

func (r *Runner) runEventsList(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 1, "page number")
	pageSize := fs.Int("page-size", r.cfg.DefaultPageSize, "items per page")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}

	result, err := r.client.FetchPage(ctx, *pageSize, *page)
	if err != nil {
		return r.handleErr(err)
	}
	meta := pagination.NewMeta(*page, *pageSize, result.TotalCount)

	if *jsonOut {
		payload := struct {
			Items []api.EventItem `json:"items"`
			Meta  pagination.Meta `json:"pagination"`
		}{Items: make([]api.EventItem, 0, len(result.Items)), Meta: meta}
		for _, ev := range result.Items {
			payload.Items = append(payload.Items, eventToItem(ev))
		}
		return r.printJSON(payload)
	}

	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(r.out, "no events")
	}
	for _, ev := range result.Items {
		_, _ = fmt.Fprintf(r.out, "%-36s  %s  %s", ev.EventID, ev.Date.Format("2006-01-02"), ev.Title)
		if ev.Location != "" {
			_, _ = fmt.Fprintf(r.out, " (%s)", ev.Location)
		}
		_, _ = fmt.Fprintln(r.out)
	}
	_, _ = fmt.Fprintf(r.out, "page %d of %d (%d events)\n", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
	_, _ = fmt.Fprintln(r.out, renderControls(meta))
	return 0
}

func (r *Runner) runEventsShow(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline events show <event-id>")
		return 2
	}

	ev, err := r.client.GetEvent(ctx, fs.Arg(0))
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(eventToItem(ev))
	}
	r.printEvent(ev)
	return 0
}

func (r *Runner) runEventsCreate(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "event title (required)")
	date := fs.String("date", "", "event date, RFC3339 (required)")
	location := fs.String("location", "", "event location")
	organizer := fs.String("organizer", "", "event organizer")
	description := fs.String("description", "", "event description")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if strings.TrimSpace(*title) == "" || strings.TrimSpace(*date) == "" {
		_, _ = fmt.Fprintln(r.errOut, "error: -title and -date are required")
		return 2
	}

	ev, err := r.client.CreateEvent(ctx, api.CreateEventRequest{
		Title:       *title,
		Description: *description,
		Location:    *location,
		Organizer:   *organizer,
		Date:        *date,
	})
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(eventToItem(ev))
	}
	_, _ = fmt.Fprintf(r.out, "created event %s\n", ev.EventID)
	return 0
}

func (r *Runner) runEventsEdit(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "new title")
	date := fs.String("date", "", "new date, RFC3339")
	location := fs.String("location", "", "new location")
	organizer := fs.String("organizer", "", "new organizer")
	description := fs.String("description", "", "new description")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline events edit <event-id> [flags]")
		return 2
	}

	req := api.UpdateEventRequest{}
	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = title
			changed = true
		case "date":
			req.Date = date
			changed = true
		case "location":
			req.Location = location
			changed = true
		case "organizer":
			req.Organizer = organizer
			changed = true
		case "description":
			req.Description = description
			changed = true
		}
	})
	if !changed {
		_, _ = fmt.Fprintln(r.errOut, "error: no fields to update")
		return 2
	}

	ev, err := r.client.UpdateEvent(ctx, fs.Arg(0), req)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(eventToItem(ev))
	}
	_, _ = fmt.Fprintf(r.out, "updated event %s\n", ev.EventID)
	return 0
}

func (r *Runner) runEventsDelete(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline events delete <event-id>")
		return 2
	}
	if err := r.client.DeleteEvent(ctx, fs.Arg(0)); err != nil {
		return r.handleErr(err)
	}
	_, _ = fmt.Fprintf(r.out, "deleted event %s\n", fs.Arg(0))
	return 0
}

func (r *Runner) runEventsRegistrations(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("events registrations", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline events registrations <event-id>")
		return 2
	}

	regs, err := r.client.ListRegistrations(ctx, fs.Arg(0))
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		items := make([]api.RegistrationItem, 0, len(regs))
		for _, reg := range regs {
			items = append(items, registrationToItem(reg))
		}
		return r.printJSON(items)
	}
	if len(regs) == 0 {
		_, _ = fmt.Fprintln(r.out, "no registrations")
		return 0
	}
	for _, reg := range regs {
		_, _ = fmt.Fprintf(r.out, "%-36s  %s <%s>\n", reg.RegistrationID, reg.AttendeeName, reg.AttendeeEmail)
	}
	return 0
}

func (r *Runner) runRegister(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "attendee name (required)")
	email := fs.String("email", "", "attendee email (required)")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(r.errOut, "usage: eventline register <event-id> -name NAME -email EMAIL")
		return 2
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		_, _ = fmt.Fprintln(r.errOut, "error: -name and -email are required")
		return 2
	}

	reg, err := r.client.Register(ctx, fs.Arg(0), api.CreateRegistrationRequest{
		AttendeeName:  *name,
		AttendeeEmail: *email,
	})
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(registrationToItem(reg))
	}
	_, _ = fmt.Fprintf(r.out, "registered %s for event %s\n", reg.AttendeeName, reg.EventID)
	return 0
}

func (r *Runner) runBrowse(ctx context.Context) int {
	if err := tui.Run(ctx, r.client, r.cfg); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func (r *Runner) runHealth(ctx context.Context) int {
	resp, err := r.client.Health(ctx)
	if err != nil {
		return r.handleErr(err)
	}
	_, _ = fmt.Fprintf(r.out, "%s\n", resp.Status)
	return 0
}

// handleErr maps a classified fetch failure to the terminal user-visible
// outcome: not-found and network failures get distinct messages, neither
// retries.
func (r *Runner) handleErr(err error) int {
	switch eventclient.Classify(err) {
	case eventclient.KindNotFound:
		_, _ = fmt.Fprintln(r.errOut, "error: event not found")
	default:
		_, _ = fmt.Fprintf(r.errOut, "error: network or server failure: %v\n", err)
	}
	return 1
}

func (r *Runner) printJSON(payload any) int {
	buf, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 1
	}
	_, _ = r.out.Write(buf)
	_, _ = fmt.Fprintln(r.out)
	return 0
}

func (r *Runner) printEvent(ev model.Event) {
	_, _ = fmt.Fprintf(r.out, "%s\n", ev.Title)
	_, _ = fmt.Fprintf(r.out, "  id:        %s\n", ev.EventID)
	_, _ = fmt.Fprintf(r.out, "  date:      %s\n", ev.Date.Format(time.RFC3339))
	if ev.Location != "" {
		_, _ = fmt.Fprintf(r.out, "  location:  %s\n", ev.Location)
	}
	if ev.Organizer != "" {
		_, _ = fmt.Fprintf(r.out, "  organizer: %s\n", ev.Organizer)
	}
	if ev.Description != "" {
		_, _ = fmt.Fprintf(r.out, "  %s\n", ev.Description)
	}
}

// renderControls lays out the pagination strip in the fixed order: previous,
// numbered pages ascending with the current page bracketed, next.
func renderControls(meta pagination.Meta) string {
	parts := make([]string, 0, meta.TotalPages+2)
	for _, control := range listview.Controls(meta) {
		switch control.Kind {
		case listview.ControlPrevious:
			parts = append(parts, "prev")
		case listview.ControlPage:
			if control.Current {
				parts = append(parts, "["+strconv.Itoa(control.Page)+"]")
			} else {
				parts = append(parts, strconv.Itoa(control.Page))
			}
		case listview.ControlNext:
			parts = append(parts, "next")
		}
	}
	return strings.Join(parts, " ")
}

func (r *Runner) printUsage() {
	_, _ = fmt.Fprintln(r.errOut, `usage: eventline [--server URL] <command>

commands:
  events list [-page N] [-page-size N] [-json]
  events show <event-id> [-json]
  events create -title TITLE -date DATE [-location L] [-organizer O] [-description D]
  events edit <event-id> [-title T] [-date D] [-location L] [-organizer O] [-description D]
  events delete <event-id>
  events registrations <event-id> [-json]
  register <event-id> -name NAME -email EMAIL
  browse
  health`)
}

func parseGlobalArgs(args []string) (string, []string, error) {
	serverURL := ""
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--server" || arg == "-server":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--server requires a value")
			}
			serverURL = args[i+1]
			i++
		case strings.HasPrefix(arg, "--server="):
			serverURL = strings.TrimPrefix(arg, "--server=")
		case strings.HasPrefix(arg, "-server="):
			serverURL = strings.TrimPrefix(arg, "-server=")
		default:
			rest = append(rest, arg)
		}
	}
	if serverURL != "" {
		if _, err := parseBaseURL(serverURL); err != nil {
			return "", nil, err
		}
	}
	return serverURL, rest, nil
}

func parseBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", fmt.Errorf("server URL must start with http:// or https://")
	}
	return raw, nil
}

func eventToItem(ev model.Event) api.EventItem {
	return api.EventItem{
		EventID:     ev.EventID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Organizer:   ev.Organizer,
		Date:        ev.Date.UTC().Format(time.RFC3339Nano),
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   ev.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func registrationToItem(reg model.Registration) api.RegistrationItem {
	return api.RegistrationItem{
		RegistrationID: reg.RegistrationID,
		EventID:        reg.EventID,
		AttendeeName:   reg.AttendeeName,
		AttendeeEmail:  reg.AttendeeEmail,
		CreatedAt:      reg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
