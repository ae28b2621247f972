// Package auth tracks the session and decides which screens may be shown.
package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// Route names the screens of the application
const (
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteDashboard    = "/dashboard"
	RouteJobs         = "/jobs"
	RouteApplications = "/my-applications"
	RouteResumes      = "/my-resumes"
	RouteUpload       = "/upload-resume"
	RouteAdmin        = "/admin"
	RouteCreateJob    = "/admin/create-job"
)

// RankingsRoute returns the route of a job's ranking screen
func RankingsRoute(jobID int) string {
	return fmt.Sprintf("/admin/jobs/%d/rankings", jobID)
}

// State is the session state
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a read-only view of the current session
type Session struct {
	State State
	User  models.User
}

// Authenticated reports whether a user is signed in
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}

// IsAdmin reports whether the signed-in user is an administrator
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.User.IsAdmin
}

// Client is the subset of the API client the gate uses
type Client interface {
	Profile(ctx context.Context) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	Register(ctx context.Context, creds models.Credentials) (models.User, error)
	Logout(ctx context.Context) error
}

// Gate owns the process-wide session. It starts unknown, becomes
// authenticated or unauthenticated, and is only reachable through its
// methods.
type Gate struct {
	client   Client
	navigate func(route string)

	mu        sync.RWMutex
	session   Session
	location  string
	listeners []func(Session)
}

// NewGate creates a gate in the unknown state. navigate is called to move
// the user to another screen; it may be nil.
func NewGate(client Client, navigate func(route string)) *Gate {
	if navigate == nil {
		navigate = func(string) {}
	}
	return &Gate{client: client, navigate: navigate}
}

// OnChange registers a listener for session transitions
func (g *Gate) OnChange(fn func(Session)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Session returns a copy of the current session
func (g *Gate) Session() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// SetLocation records the screen currently shown
func (g *Gate) SetLocation(route string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.location = route
}

// Location returns the screen currently shown
func (g *Gate) Location() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.location
}

// Start resolves the unknown state with a profile check. Any failure,
// including a network error, means unauthenticated.
func (g *Gate) Start(ctx context.Context) Session {
	g.set(Session{State: StateUnknown})

	user, err := g.client.Profile(ctx)
	if err != nil {
		log.Printf("[auth] no active session: %v", err)
		g.set(Session{State: StateUnauthenticated})
	} else {
		log.Printf("[auth] session restored for %s", user.Username)
		g.set(Session{State: StateAuthenticated, User: user})
	}
	return g.Session()
}

// Login signs in. On success the session is authenticated directly from
// the response without another profile fetch.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	user, err := g.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	g.set(Session{State: StateAuthenticated, User: user})
	log.Printf("[auth] %s signed in", user.Username)
	return nil
}

// Register creates an account and signs in
func (g *Gate) Register(ctx context.Context, creds models.Credentials) error {
	user, err := g.client.Register(ctx, creds)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	g.set(Session{State: StateAuthenticated, User: user})
	log.Printf("[auth] %s registered", user.Username)
	return nil
}

// Logout signs out. The session is cleared even when the server call fails;
// that failure is still returned.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.client.Logout(ctx)
	g.set(Session{State: StateUnauthenticated})
	if err != nil {
		log.Printf("[auth] server logout failed, session cleared locally: %v", err)
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// HandleUnauthorized reacts to a 401 from any non-auth endpoint: the session
// is cleared and the user is sent to the login screen, unless already there.
func (g *Gate) HandleUnauthorized(path string) {
	g.mu.Lock()
	redirect := g.location != RouteLogin
	if redirect {
		g.location = RouteLogin
	}
	g.mu.Unlock()

	g.set(Session{State: StateUnauthenticated})

	if redirect {
		log.Printf("[auth] session expired (%s), redirecting to login", path)
		g.navigate(RouteLogin)
	}
}

func (g *Gate) set(s Session) {
	g.mu.Lock()
	changed := g.session != s
	g.session = s
	listeners := append(([]func(Session))(nil), g.listeners...)
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(s)
	}
}

// Access is the protection level of a route
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessAdmin
)

// AccessOf classifies a route
func AccessOf(route string) Access {
	switch {
	case route == RouteLogin || route == RouteRegister:
		return AccessPublic
	case route == RouteAdmin || strings.HasPrefix(route, RouteAdmin+"/"):
		return AccessAdmin
	default:
		return AccessProtected
	}
}

// Outcome is what to do on entering a route
type Outcome int

const (
	// OutcomeAllow shows the route
	OutcomeAllow Outcome = iota
	// OutcomeWait shows a loading indicator until the session resolves
	OutcomeWait
	// OutcomeRedirect sends the user to Decision.Target
	OutcomeRedirect
)

// Decision is the result of evaluating a route against the session
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide evaluates route entry. Protected routes wait while the session is
// unknown and send unauthenticated users to login. Admin routes send
// authenticated non-admins to the dashboard.
func (g *Gate) Decide(route string) Decision {
	return decide(g.Session(), route)
}

func decide(s Session, route string) Decision {
	access := AccessOf(route)
	if access == AccessPublic {
		return Decision{Outcome: OutcomeAllow}
	}

	switch s.State {
	case StateUnknown:
		return Decision{Outcome: OutcomeWait}
	case StateUnauthenticated:
		return Decision{Outcome: OutcomeRedirect, Target: RouteLogin}
	}

	if access == AccessAdmin && !s.User.IsAdmin {
		return Decision{Outcome: OutcomeRedirect, Target: RouteDashboard}
	}
	return Decision{Outcome: OutcomeAllow}
}
