package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/views/chapter"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/views/chapters"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/views/stats"
)

// App is the main TUI application following the Elm architecture.
// It routes messages to the active view.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView     *menu.View
	searchView   *search.View
	chaptersView *chapters.View
	chapterView  *chapter.View
	statsView    *stats.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s),
		searchView:   search.NewView(s, nil, ports.Search),
		chaptersView: chapters.NewView(s, ports.Chapters),
		chapterView:  chapter.NewView(s, ports.Chapters),
		statsView:    stats.NewView(s, ports.Chapters, ports.Index),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context passed to every service call.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.chaptersView.WithContext(ctx)
	a.chapterView.WithContext(ctx)
	a.statsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("chapterdex")
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewChapters:
			return a, a.chaptersView.Init()
		case messages.ViewStats:
			return a, a.statsView.Init()
		case messages.ViewMenu, messages.ViewHelp, messages.ViewChapter:
		}
		return a, nil

	case messages.ChapterSelected:
		a.currentView = messages.ViewChapter
		return a, a.chapterView.Open(msg.ChapterID, msg.Back)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.ChaptersLoaded:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.ChapterLoaded:
		a.chapterView, cmd = a.chapterView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.StatsLoaded:
		a.statsView, cmd = a.statsView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewChapters:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
	case messages.ViewChapter:
		a.chapterView, cmd = a.chapterView.Update(msg)
	case messages.ViewStats:
		a.statsView, cmd = a.statsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewChapters:
		return a.chaptersView.View()
	case messages.ViewChapter:
		return a.chapterView.View()
	case messages.ViewStats:
		return a.statsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Search:
  (type)      Enter a query
  tab         Cycle hybrid / semantic / keyword
  enter       Search, then open the selected chapter
  n           New search
  j/k, ↑/↓    Move through results

Chapters:
  ←/→         Previous / next page
  /           Filter by text
  enter       Open chapter

Chapter:
  j/k, PgUp/PgDn, g/G   Scroll

Anywhere:
  esc         Back
  ctrl+c      Quit

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.chaptersView.SetDimensions(width, height)
	a.chapterView.SetDimensions(width, height)
	// stats view renders at natural height
}
