// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type draws the plate and the pot at the bottom of the
// terminal with a prompt under them. Notifications are printed above
// the rendered area via Program.Println / Printf, so concurrent writes
// never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/hotpot/internal/engine"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	paneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fcd34d")).
			Bold(true)

	paneTitleDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f97316")).
			Bold(true)

	armedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Italic(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	readyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 1)

	cellSelectedStyle = cellStyle.
				BorderForeground(lipgloss.Color("#f97316"))

	cellReadyStyle = cellStyle.
			BorderForeground(lipgloss.Color("#86efac"))

	keyHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the startup banner color.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// Controller is what the UI reads and taps.
type Controller interface {
	View() engine.View
	TapPlate(uid string)
	RemovePlate(uid string)
	TapPot(uid string)
	PendingPlate(uid string) bool
}

// Option configures the UI.
type Option func(*UI)

// WithTitleTap sets the callback for taps on the title. Three quick
// taps open admin mode.
func WithTitleTap(fn func()) Option {
	return func(u *UI) {
		u.titleTap = fn
	}
}

// WithPushToTalk sets the callback for the voice key.
func WithPushToTalk(fn func()) Option {
	return func(u *UI) {
		u.pushToTalk = fn
	}
}

// WithRefreshInterval sets how often progress bars are redrawn.
func WithRefreshInterval(d time.Duration) Option {
	return func(u *UI) {
		u.refresh = d
	}
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call [UI.Println], [UI.Printf], and read from [UI.InputChan] at any
// time after [UI.WaitReady] returns.
type UI struct {
	program    *tea.Program
	ctrl       Controller
	titleTap   func()
	pushToTalk func()
	refresh    time.Duration
	inputCh    chan string
	readyCh    chan struct{}
	quitCh     chan struct{}
	done       atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(ctrl Controller, opts ...Option) *UI {
	u := &UI{
		ctrl:    ctrl,
		refresh: 100 * time.Millisecond,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Println prints a line above the kitchen. Thread-safe. Falls back to
// fmt.Println before the program starts or after it ends.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the kitchen on its own line.
// Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns submitted command lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintChat prints a conversational line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an alert line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a voice-recognised input line.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + userInputEchoStyle.Render(text))
}

// PrintUserInput echoes a typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("hotpot") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// Refresh asks for an immediate redraw. Safe to call from any goroutine.
func (u *UI) Refresh() {
	if u.program != nil && !u.done.Load() {
		go u.program.Send(refreshMsg{})
	}
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	m := newModel(u.ctrl, u.inputCh, u.refresh)
	m.readyCh = u.readyCh
	m.titleTap = u.titleTap
	m.pushToTalk = u.pushToTalk
	m.echoFn = u.PrintUserInput

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type pane int

const (
	panePlate pane = iota
	panePot
)

type model struct {
	ctrl       Controller
	input      textinput.Model
	bar        progress.Model
	inputCh    chan<- string
	readyCh    chan struct{}
	echoFn     func(string)
	titleTap   func()
	pushToTalk func()
	refresh    time.Duration

	view     engine.View
	focus    pane
	cursor   [2]int
	typing   bool
	width    int
	showHelp bool
}

type tickMsg time.Time

type refreshMsg struct{}

func newModel(ctrl Controller, inputCh chan<- string, refresh time.Duration) model {
	ti := textinput.New()
	// Plain-text prompt: styled prompts break textinput width math.
	ti.Prompt = "hotpot> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.CharLimit = 200
	ti.Width = 60

	bar := progress.New(
		progress.WithGradient("#fde68a", "#f97316"),
		progress.WithoutPercentage(),
		progress.WithWidth(16),
	)

	m := model{
		ctrl:    ctrl,
		input:   ti,
		bar:     bar,
		inputCh: inputCh,
		refresh: refresh,
	}
	m.view = ctrl.View()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateNav(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		const promptLen = 8
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		m.sync()
		return m, tea.Batch(m.tickCmd(), tea.SetWindowTitle(titleStr(m.view)))

	case refreshMsg:
		m.sync()
		return m, nil
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.typing = false
		m.input.Reset()
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		v := m.input.Value()
		m.input.Reset()
		m.input.Blur()
		m.typing = false
		if strings.TrimSpace(v) == "" {
			return m, nil
		}
		m.inputCh <- v
		echoFn := m.echoFn
		if echoFn == nil {
			return m, nil
		}
		// Echo from a Cmd: printing inside Update would deadlock.
		return m, func() tea.Msg {
			echoFn(maskSecret(v))
			return nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "left", "right", "h", "l":
		if m.focus == panePlate {
			m.focus = panePot
		} else {
			m.focus = panePlate
		}
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		m.tap()
	case "x", "delete", "backspace":
		if m.focus == panePlate {
			if it, ok := m.selectedPlate(); ok {
				m.ctrl.RemovePlate(it.Entry.UID)
			}
		}
	case ":", "/":
		m.typing = true
		return m, m.input.Focus()
	case "a":
		m.typing = true
		m.input.SetValue("add ")
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "t":
		if m.titleTap != nil {
			m.titleTap()
		}
	case "v":
		if m.pushToTalk != nil {
			m.pushToTalk()
		}
	case "?":
		m.showHelp = !m.showHelp
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.Runes[0] - '1')
		if n < m.paneLen(m.focus) {
			m.cursor[m.focus] = n
		}
	}
	m.sync()
	return m, nil
}

// sync reloads the kitchen and keeps both cursors in range.
func (m *model) sync() {
	m.view = m.ctrl.View()
	for p := panePlate; p <= panePot; p++ {
		n := m.paneLen(p)
		if m.cursor[p] >= n {
			m.cursor[p] = n - 1
		}
		if m.cursor[p] < 0 {
			m.cursor[p] = 0
		}
	}
}

func (m *model) paneLen(p pane) int {
	if p == panePlate {
		return len(m.view.Plate)
	}
	return len(m.view.Pot)
}

func (m *model) move(delta int) {
	n := m.paneLen(m.focus)
	if n == 0 {
		return
	}
	m.cursor[m.focus] = (m.cursor[m.focus] + delta + n) % n
}

func (m *model) tap() {
	switch m.focus {
	case panePlate:
		if it, ok := m.selectedPlate(); ok {
			m.ctrl.TapPlate(it.Entry.UID)
		}
	case panePot:
		if it, ok := m.selectedPot(); ok {
			m.ctrl.TapPot(it.Entry.UID)
		}
	}
}

func (m *model) selectedPlate() (engine.PlateItem, bool) {
	i := m.cursor[panePlate]
	if i < 0 || i >= len(m.view.Plate) {
		return engine.PlateItem{}, false
	}
	return m.view.Plate[i], true
}

func (m *model) selectedPot() (engine.PotItem, bool) {
	i := m.cursor[panePot]
	if i < 0 || i >= len(m.view.Pot) {
		return engine.PotItem{}, false
	}
	return m.view.Pot[i], true
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.renderPlate())
	b.WriteByte('\n')
	b.WriteString(m.renderPot())
	b.WriteByte('\n')
	if m.showHelp {
		b.WriteString(keyHelpStyle.Render(helpText))
		b.WriteByte('\n')
	}
	if m.typing {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(keyHelpStyle.Render("enter tap · x remove · tab switch · a add · : command · ? keys · q quit"))
	}
	return b.String()
}

const helpText = `  plate: tap once to cook, tap twice quickly to cook a copy and keep it on the plate
  pot:   tap a ready item to eat it, tap twice quickly to fish an unfinished one back
  keys:  ↑/↓ move · tab switch pane · 1-9 jump · enter/space tap · x remove
         a add · : command · v talk · t t t admin · q quit`

// ── Helpers ──────────────────────────────────────────────────────

// maskSecret hides the argument of password commands in the echo.
func maskSecret(s string) string {
	f := strings.Fields(s)
	if len(f) < 2 {
		return s
	}
	switch strings.ToLower(f[0]) {
	case "login", "setup", "passwd":
		return f[0] + " ******"
	}
	return s
}

func titleStr(v engine.View) string {
	if len(v.Pot) == 0 {
		return "Hotpot"
	}
	ready := 0
	for _, it := range v.Pot {
		if it.Entry.Done {
			ready++
		}
	}
	if ready == 0 {
		return fmt.Sprintf("Hotpot · %d cooking", len(v.Pot))
	}
	return fmt.Sprintf("Hotpot · %d cooking · %d READY", len(v.Pot)-ready, ready)
}

// fmtSeconds renders a whole-second countdown.
func fmtSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", s/60, s%60)
}
