// Package tui is the interactive catalog browser: a paginated event list
// with a nested detail view whose register and edit children share one
// loaded record.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikaelhatanpaa/eventline/internal/api"
	"github.com/mikaelhatanpaa/eventline/internal/config"
	"github.com/mikaelhatanpaa/eventline/internal/detail"
	"github.com/mikaelhatanpaa/eventline/internal/eventclient"
	"github.com/mikaelhatanpaa/eventline/internal/listview"
	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/nav"
	"github.com/mikaelhatanpaa/eventline/internal/notify"
)

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, client *eventclient.Client, cfg config.Config) error {
	m := newBrowser(ctx, client, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type listStateMsg struct {
	state listview.State
}

type detailResultMsg struct {
	route  nav.Route
	result detail.Result
}

type eventSavedMsg struct {
	ev  model.Event
	err error
}

type registeredMsg struct {
	reg model.Registration
	err error
}

type noticeTickMsg struct{}

type browser struct {
	ctx      context.Context
	client   *eventclient.Client
	cfg      config.Config
	lister   *listview.Controller
	nest     *detail.Container
	notifier *notify.Notifier

	route  nav.Route
	list   listview.State
	cursor int
	event  *model.Event

	inputs  []textinput.Model
	focus   int
	formErr string

	width  int
	height int
}

func newBrowser(ctx context.Context, client *eventclient.Client, cfg config.Config) browser {
	return browser{
		ctx:      ctx,
		client:   client,
		cfg:      cfg,
		lister:   listview.NewController(client, cfg.DefaultPageSize),
		nest:     detail.NewContainer(client),
		notifier: notify.New(cfg.NotifyTTL),
		route:    nav.Route{Kind: nav.KindList, Page: 1},
		list:     listview.State{Phase: listview.PhaseLoading, Page: 1},
		width:    80,
		height:   24,
	}
}

func (b browser) Init() tea.Cmd {
	return b.visitCmd(1)
}

// visitCmd drives the list controller; the returned snapshot is whatever
// transition the controller last accepted, so a superseded fetch renders
// the newer page rather than its own result.
func (b browser) visitCmd(page int) tea.Cmd {
	lister := b.lister
	ctx := b.ctx
	return func() tea.Msg {
		lister.Visit(ctx, page)
		return listStateMsg{state: lister.State()}
	}
}

func (b browser) showCmd(route nav.Route) tea.Cmd {
	nest := b.nest
	ctx := b.ctx
	return func() tea.Msg {
		return detailResultMsg{route: route, result: nest.Show(ctx, route)}
	}
}

func (b browser) noticeCmd(message string) tea.Cmd {
	b.notifier.Set(message)
	ttl := b.cfg.NotifyTTL
	return tea.Tick(ttl+50*time.Millisecond, func(time.Time) tea.Msg {
		return noticeTickMsg{}
	})
}

// navigate is the single route switch: every screen change goes through
// here so list visits and detail loads always start their fetches.
func (b browser) navigate(route nav.Route) (browser, tea.Cmd) {
	b.route = route
	b.formErr = ""
	switch route.Kind {
	case nav.KindList:
		b.cursor = 0
		return b, b.visitCmd(route.Page)
	case nav.KindEventDetail:
		switch route.Child {
		case nav.ChildRegister:
			b.inputs = newRegisterForm()
			b.focus = 0
		case nav.ChildEdit:
			b.inputs = newEditForm(b.event)
			b.focus = 0
		default:
			b.inputs = nil
		}
		return b, b.showCmd(route)
	default:
		return b, nil
	}
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil

	case listStateMsg:
		b.list = msg.state
		if b.cursor >= len(b.list.Items) {
			b.cursor = 0
		}
		return b, nil

	case detailResultMsg:
		if msg.result.Stale {
			return b, nil
		}
		if msg.result.Redirect != nil {
			return b.navigate(*msg.result.Redirect)
		}
		b.event = msg.result.Event
		if b.route.Kind == nav.KindEventDetail && b.route.Child == nav.ChildEdit && b.event != nil {
			b.inputs = newEditForm(b.event)
		}
		return b, nil

	case eventSavedMsg:
		if msg.err != nil {
			b.formErr = submitError(msg.err)
			return b, nil
		}
		b.nest.Put(msg.ev)
		b.event = &msg.ev
		next, cmd := b.navigate(nav.Sibling(b.route, nav.ChildDetail, nav.Params{}))
		return next, tea.Batch(cmd, next.noticeCmd("event updated"))

	case registeredMsg:
		if msg.err != nil {
			b.formErr = submitError(msg.err)
			return b, nil
		}
		next, cmd := b.navigate(nav.Sibling(b.route, nav.ChildDetail, nav.Params{}))
		return next, tea.Batch(cmd, next.noticeCmd(fmt.Sprintf("registered %s", msg.reg.AttendeeName)))

	case noticeTickMsg:
		// repaint so an expired notice disappears
		return b, nil

	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b.updateForm(msg)
}

func (b browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return b, tea.Quit
	}
	switch b.route.Kind {
	case nav.KindList:
		return b.handleListKey(msg)
	case nav.KindEventDetail:
		if b.route.Child == nav.ChildDetail {
			return b.handleDetailKey(msg)
		}
		return b.handleFormKey(msg)
	default:
		return b.handleErrorKey(msg)
	}
}

func (b browser) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	meta := b.list.Meta
	switch msg.String() {
	case "q", "esc":
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
		return b, nil
	case "down", "j":
		if b.cursor < len(b.list.Items)-1 {
			b.cursor++
		}
		return b, nil
	case "left", "h", "p":
		if meta.CurrentPage > 1 {
			return b.navigate(nav.Route{Kind: nav.KindList, Page: meta.CurrentPage - 1})
		}
		return b, nil
	case "right", "l", "n":
		if meta.CurrentPage < meta.TotalPages {
			return b.navigate(nav.Route{Kind: nav.KindList, Page: meta.CurrentPage + 1})
		}
		return b, nil
	case "r":
		return b.navigate(nav.Route{Kind: nav.KindList, Page: b.list.Page})
	case "enter":
		if b.cursor >= 0 && b.cursor < len(b.list.Items) {
			ev := b.list.Items[b.cursor]
			return b.navigate(nav.Route{Kind: nav.KindEventDetail, EventID: ev.EventID})
		}
		return b, nil
	}
	if page, err := strconv.Atoi(msg.String()); err == nil && page >= 1 && page <= meta.TotalPages {
		return b.navigate(nav.Route{Kind: nav.KindList, Page: page})
	}
	return b, nil
}

func (b browser) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "esc", "backspace", "b":
		return b.navigate(nav.Route{Kind: nav.KindList, Page: b.list.Page})
	case "g":
		return b.navigate(nav.Sibling(b.route, nav.ChildRegister, nav.Params{}))
	case "e":
		return b.navigate(nav.Sibling(b.route, nav.ChildEdit, nav.Params{}))
	}
	return b, nil
}

func (b browser) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return b.navigate(nav.Sibling(b.route, nav.ChildDetail, nav.Params{}))
	case "tab", "down":
		b.focus = (b.focus + 1) % len(b.inputs)
		b.refocus()
		return b, nil
	case "shift+tab", "up":
		b.focus = (b.focus - 1 + len(b.inputs)) % len(b.inputs)
		b.refocus()
		return b, nil
	case "enter":
		if b.focus < len(b.inputs)-1 {
			b.focus++
			b.refocus()
			return b, nil
		}
		return b.submitForm()
	}
	return b.updateForm(msg)
}

func (b browser) handleErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return b, tea.Quit
	case "esc", "enter", "b":
		return b.navigate(nav.Route{Kind: nav.KindList, Page: 1})
	}
	return b, nil
}

func (b *browser) refocus() {
	for i := range b.inputs {
		if i == b.focus {
			b.inputs[i].Focus()
		} else {
			b.inputs[i].Blur()
		}
	}
}

func (b browser) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(b.inputs) == 0 {
		return b, nil
	}
	cmds := make([]tea.Cmd, len(b.inputs))
	for i := range b.inputs {
		b.inputs[i], cmds[i] = b.inputs[i].Update(msg)
	}
	return b, tea.Batch(cmds...)
}

func (b browser) submitForm() (tea.Model, tea.Cmd) {
	switch b.route.Child {
	case nav.ChildRegister:
		name := strings.TrimSpace(b.inputs[0].Value())
		email := strings.TrimSpace(b.inputs[1].Value())
		if name == "" || email == "" {
			b.formErr = "name and email are required"
			return b, nil
		}
		client := b.client
		ctx := b.ctx
		eventID := b.route.EventID
		return b, func() tea.Msg {
			reg, err := client.Register(ctx, eventID, api.CreateRegistrationRequest{
				AttendeeName:  name,
				AttendeeEmail: email,
			})
			return registeredMsg{reg: reg, err: err}
		}
	case nav.ChildEdit:
		title := strings.TrimSpace(b.inputs[0].Value())
		date := strings.TrimSpace(b.inputs[1].Value())
		if title == "" || date == "" {
			b.formErr = "title and date are required"
			return b, nil
		}
		location := strings.TrimSpace(b.inputs[2].Value())
		organizer := strings.TrimSpace(b.inputs[3].Value())
		description := strings.TrimSpace(b.inputs[4].Value())
		client := b.client
		ctx := b.ctx
		eventID := b.route.EventID
		return b, func() tea.Msg {
			ev, err := client.UpdateEvent(ctx, eventID, api.UpdateEventRequest{
				Title:       &title,
				Date:        &date,
				Location:    &location,
				Organizer:   &organizer,
				Description: &description,
			})
			return eventSavedMsg{ev: ev, err: err}
		}
	}
	return b, nil
}

func newRegisterForm() []textinput.Model {
	name := textinput.New()
	name.Prompt = "name      > "
	name.Placeholder = "Attendee name"
	name.CharLimit = 128
	name.Focus()

	email := textinput.New()
	email.Prompt = "email     > "
	email.Placeholder = "attendee@example.com"
	email.CharLimit = 254

	return []textinput.Model{name, email}
}

func newEditForm(ev *model.Event) []textinput.Model {
	labels := []string{"title", "date", "location", "organizer", "about"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-9s > ", label)
		in.CharLimit = 256
		inputs[i] = in
	}
	if ev != nil {
		inputs[0].SetValue(ev.Title)
		inputs[1].SetValue(ev.Date.UTC().Format(time.RFC3339))
		inputs[2].SetValue(ev.Location)
		inputs[3].SetValue(ev.Organizer)
		inputs[4].SetValue(ev.Description)
	}
	inputs[0].Focus()
	return inputs
}

func submitError(err error) string {
	if eventclient.IsNotFound(err) {
		return "event not found"
	}
	return fmt.Sprintf("request failed: %v", err)
}

func (b browser) View() string {
	var body string
	switch b.route.Kind {
	case nav.KindList:
		body = b.viewList()
	case nav.KindEventDetail:
		body = b.viewDetail()
	case nav.KindNotFound:
		kind := string(b.route.ResourceKind)
		if kind == "" {
			kind = string(nav.ResourcePage)
		}
		body = errorStyle.Render(fmt.Sprintf("no such %s", kind)) + "\n\n" +
			helpStyle.Render("enter/b back to list  q quit")
	case nav.KindNetworkError:
		body = errorStyle.Render("network or server failure") + "\n\n" +
			helpStyle.Render("enter/b back to list  q quit")
	}
	if message, visible := b.notifier.Message(); visible {
		body += "\n\n" + noticeStyle.Render(message)
	}
	return panel(body)
}

func (b browser) viewList() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Events"))
	sb.WriteString("\n\n")

	switch b.list.Phase {
	case listview.PhaseLoading:
		sb.WriteString(mutedStyle.Render("loading..."))
	case listview.PhaseFailed:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("failed to load page %d", b.list.Page)))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("r retry"))
	case listview.PhaseEmpty:
		sb.WriteString(mutedStyle.Render("no events"))
	case listview.PhaseLoaded:
		for i, ev := range b.list.Items {
			line := fmt.Sprintf("%s  %s", ev.Date.Format("2006-01-02"), ev.Title)
			if ev.Location != "" {
				line += mutedStyle.Render("  " + ev.Location)
			}
			if i == b.cursor {
				sb.WriteString(selectedStyle.Render("> ") + line)
			} else {
				sb.WriteString("  " + line)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(b.viewControls())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(fmt.Sprintf("page %d of %d (%d events)", b.list.Meta.CurrentPage, b.list.Meta.TotalPages, b.list.Meta.TotalItems)))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("↑/↓ select  ←/→ page  1-9 jump  enter open  r reload  q quit"))
	return sb.String()
}

func (b browser) viewControls() string {
	parts := make([]string, 0, b.list.Meta.TotalPages+2)
	for _, control := range listview.Controls(b.list.Meta) {
		switch control.Kind {
		case listview.ControlPrevious:
			parts = append(parts, accentStyle.Render("‹ prev"))
		case listview.ControlPage:
			label := strconv.Itoa(control.Page)
			if control.Current {
				label = currentStyle.Render(label)
			}
			parts = append(parts, label)
		case listview.ControlNext:
			parts = append(parts, accentStyle.Render("next ›"))
		}
	}
	return strings.Join(parts, "  ")
}

func (b browser) viewDetail() string {
	var sb strings.Builder
	if b.event == nil {
		sb.WriteString(mutedStyle.Render("loading..."))
		return sb.String()
	}
	ev := b.event
	sb.WriteString(titleStyle.Render(ev.Title))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("date       %s\n", ev.Date.Format("2006-01-02 15:04 MST")))
	if ev.Location != "" {
		sb.WriteString(fmt.Sprintf("location   %s\n", ev.Location))
	}
	if ev.Organizer != "" {
		sb.WriteString(fmt.Sprintf("organizer  %s\n", ev.Organizer))
	}
	if ev.Description != "" {
		sb.WriteString("\n" + ev.Description + "\n")
	}

	switch b.route.Child {
	case nav.ChildRegister:
		sb.WriteString("\n" + titleStyle.Render("Register") + "\n")
		sb.WriteString(b.viewForm())
	case nav.ChildEdit:
		sb.WriteString("\n" + titleStyle.Render("Edit") + "\n")
		sb.WriteString(b.viewForm())
	default:
		sb.WriteString("\n" + helpStyle.Render("g register  e edit  esc back  q quit"))
	}
	return sb.String()
}

func (b browser) viewForm() string {
	var sb strings.Builder
	for i := range b.inputs {
		sb.WriteString(b.inputs[i].View())
		sb.WriteString("\n")
	}
	if b.formErr != "" {
		sb.WriteString(errorStyle.Render(b.formErr))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("tab next field  enter submit  esc cancel"))
	return sb.String()
}
