package gui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/auth"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/config"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/views"
)

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	client     *api.Client
	gate       *auth.Gate
	ctx        context.Context
	cancelFunc context.CancelFunc

	notify views.Notifier

	dashboard    *views.DashboardView
	jobs         *views.JobsView
	resumes      *views.ResumesView
	applications *views.ApplicationsView
	adminStats   *views.AdminDashboardView
	adminList    *views.AdminAnalysesView

	tabs      *container.AppTabs
	tabRoutes map[*container.TabItem]string
	userLabel *widget.Label
}

// NewApp creates a new GUI application bound to the API client
func NewApp(cfg *config.Config, client *api.Client) *App {
	a := app.New()
	w := a.NewWindow("Resume Screening")
	w.Resize(fyne.NewSize(1100, 750))

	guiApp := &App{
		fyneApp:    a,
		mainWindow: w,
		config:     cfg,
		client:     client,
	}
	guiApp.ctx, guiApp.cancelFunc = context.WithCancel(context.Background())
	w.SetOnClosed(guiApp.cancelFunc)

	guiApp.notify = views.NotifierFunc(func(msg string, err error) {
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(errors.New(msg), guiApp.mainWindow)
				return
			}
			dialog.ShowInformation("Info", msg, guiApp.mainWindow)
		})
	})

	guiApp.gate = auth.NewGate(client, guiApp.navigate)
	client.OnUnauthorized(guiApp.gate.HandleUnauthorized)

	return guiApp
}

// Run resolves the session and starts the GUI event loop
func (a *App) Run() {
	a.mainWindow.SetContent(container.NewCenter(widget.NewProgressBarInfinite()))

	go func() {
		a.gate.Start(a.ctx)
		fyne.Do(func() { a.navigate(auth.RouteDashboard) })
	}()

	a.mainWindow.ShowAndRun()
}

// navigate applies the gate's decision for route and shows the result.
// It may be called from any goroutine.
func (a *App) navigate(route string) {
	fyne.Do(func() { a.show(route) })
}

func (a *App) show(route string) {
	d := a.gate.Decide(route)
	switch d.Outcome {
	case auth.OutcomeWait:
		a.mainWindow.SetContent(container.NewCenter(widget.NewProgressBarInfinite()))
		return
	case auth.OutcomeRedirect:
		route = d.Target
	}
	a.gate.SetLocation(route)

	switch route {
	case auth.RouteLogin, auth.RouteRegister:
		a.closeSessionViews()
		a.tabs = nil
		a.mainWindow.SetContent(a.createLoginScreen(route == auth.RouteRegister))
	default:
		if a.tabs == nil {
			a.mainWindow.SetContent(a.createMainScreen())
		}
		a.selectRoute(route)
	}
}

// newSessionViews gives each signed-in session its own view state
func (a *App) newSessionViews() {
	a.closeSessionViews()
	cfg := a.config
	a.dashboard = views.NewDashboardView(a.client, cfg.DashboardPerPage, a.notify)
	a.jobs = views.NewJobsView(a.client, cfg.PerPage, a.notify)
	a.resumes = views.NewResumesView(a.client, cfg.PerPage, cfg.AnalysesPerPage, a.notify)
	a.applications = views.NewApplicationsView(a.client, cfg.PerPage, a.notify)
	a.adminStats = views.NewAdminDashboardView(a.client, a.notify)
	a.adminList = views.NewAdminAnalysesView(a.client, cfg.PerPage, a.notify)
}

// closeSessionViews abandons the refreshes still running for the previous
// session so their results never reach the next one
func (a *App) closeSessionViews() {
	if a.dashboard == nil {
		return
	}
	a.dashboard.Close()
	a.jobs.Close()
	a.resumes.Close()
	a.applications.Close()
	a.adminList.Close()
}

// createMainScreen builds the signed-in layout with one tab per screen
func (a *App) createMainScreen() fyne.CanvasObject {
	session := a.gate.Session()
	a.newSessionViews()

	a.tabRoutes = map[*container.TabItem]string{}
	tab := func(title, route string, content fyne.CanvasObject) *container.TabItem {
		item := container.NewTabItem(title, content)
		a.tabRoutes[item] = route
		return item
	}

	a.tabs = container.NewAppTabs(
		tab("Dashboard", auth.RouteDashboard, a.createDashboardTab()),
		tab("Jobs", auth.RouteJobs, a.createJobsTab()),
		tab("My Resumes", auth.RouteResumes, a.createResumesTab()),
		tab("My Applications", auth.RouteApplications, a.createApplicationsTab()),
	)
	if session.IsAdmin() {
		a.tabs.Append(tab("Admin", auth.RouteAdmin, a.createAdminTab()))
	}
	a.tabs.Append(tab("Settings", "/settings", a.createSettingsTab()))

	a.tabs.OnSelected = func(item *container.TabItem) {
		route := a.tabRoutes[item]
		if d := a.gate.Decide(route); d.Outcome == auth.OutcomeRedirect {
			a.show(d.Target)
			return
		}
		a.gate.SetLocation(route)
		a.refreshRoute(route)
	}

	a.userLabel = widget.NewLabel(fmt.Sprintf("Signed in as %s", session.User.Username))
	logoutBtn := widget.NewButton("Logout", a.handleLogout)

	header := container.NewBorder(nil, nil, nil, logoutBtn, a.userLabel)
	return container.NewBorder(header, nil, nil, nil, a.tabs)
}

func (a *App) selectRoute(route string) {
	for item, r := range a.tabRoutes {
		if r != route {
			continue
		}
		if a.tabs.Selected() != item {
			a.tabs.Select(item) // OnSelected refreshes
			return
		}
		break
	}
	a.refreshRoute(route)
}

// refreshRoute loads the data of the screen behind route
func (a *App) refreshRoute(route string) {
	switch route {
	case auth.RouteDashboard:
		a.background(a.dashboard.Refresh)
	case auth.RouteJobs:
		a.background(a.jobs.Refresh)
	case auth.RouteResumes:
		a.background(a.resumes.Refresh)
	case auth.RouteApplications:
		a.background(a.applications.Refresh)
	case auth.RouteAdmin:
		a.background(a.adminStats.Refresh)
		a.background(a.adminList.Refresh)
	}
}

// background runs a view operation off the UI goroutine
func (a *App) background(fn func(context.Context) error) {
	a.run(a.ctx, fn)
}

func (a *App) run(ctx context.Context, fn func(context.Context) error) {
	go func() {
		if err := fn(ctx); err != nil && !errors.Is(err, refresh.ErrInFlight) && !api.IsCanceled(err) {
			log.Printf("[gui] %v", err)
		}
	}()
}

// handleLogout ends the session; the gate clears it even when the request fails
func (a *App) handleLogout() {
	go func() {
		if err := a.gate.Logout(a.ctx); err != nil {
			log.Printf("[gui] logout: %v", err)
		}
		a.navigate(auth.RouteLogin)
	}()
}
