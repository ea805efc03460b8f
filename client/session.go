package client

import (
	"context"
	"sync"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/model"
	"github.com/healthybites/healthybites/utils/log"
)

// Session is the one piece of cross-screen state: the authenticated identity
// and the live /users/{uid} projection (display name, avatar, theme). There
// is exactly one subscription on the user node per process; every screen
// reads this object instead of re-subscribing on its own, which is how the
// original client duplicated the theme listener per screen.
type Session struct {
	gw        gateway.Gateway
	nav       *Navigator
	projector *Projector

	mu          sync.RWMutex
	uid         string
	profile     model.UserProfile
	loaded      bool
	cancelWatch context.CancelFunc
}

func NewSession(gw gateway.Gateway, nav *Navigator) *Session {
	return &Session{
		gw:        gw,
		nav:       nav,
		projector: NewProjector(gw),
	}
}

// SignIn verifies the credentials, opens the user-node projection, and
// replaces the login screen with the feed. On failure the returned error's
// message is what the user sees, verbatim, and the navigator does not move:
// the user stays on the login screen with their input intact.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	uid, err := s.gw.Authenticate(ctx, email, password)
	if err != nil {
		log.Log.WithError(err).Info("sign-in rejected")
		return err
	}

	// The projection outlives the sign-in call; it is cancelled by SignOut.
	watchCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancelWatch != nil {
		// Re-sign-in without an intervening sign-out; the stale projection
		// must not outlive its session.
		s.cancelWatch()
	}
	s.uid = uid
	s.profile = model.UserProfile{}
	s.loaded = false
	s.cancelWatch = cancel
	s.mu.Unlock()

	if err := s.projector.Project(watchCtx, gateway.UserPath(uid), s.apply); err != nil {
		// The session is still valid; the profile just renders defaults
		// until a later subscription succeeds.
		log.Log.WithError(err).Error("user node projection failed")
	}

	if err := s.nav.Replace(ScreenFeed); err != nil {
		log.Log.WithError(err).Warn("post-sign-in navigation")
	}
	return nil
}

// Register creates credentials and seeds the profile node. The theme starts
// out unset, which downstream consumers read as light.
func (s *Session) Register(ctx context.Context, email, password string, profile model.UserProfile) (string, error) {
	uid, err := s.gw.SignUp(ctx, email, password)
	if err != nil {
		return "", err
	}

	value, err := model.ToTree(profile)
	if err != nil {
		return "", err
	}
	if err := s.gw.Write(ctx, gateway.UserPath(uid), value); err != nil {
		return "", err
	}
	return uid, nil
}

// SignOut terminates the backend session, detaches the user projection, and
// unconditionally resets navigation to the login screen. Fire-and-forget:
// it never fails visibly.
func (s *Session) SignOut() {
	s.gw.TerminateSession()

	s.mu.Lock()
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
	s.uid = ""
	s.profile = model.UserProfile{}
	s.loaded = false
	s.mu.Unlock()

	s.nav.Reset(ScreenLogin)
}

func (s *Session) apply(snap gateway.Snapshot) {
	if snap.Value == nil {
		// Brand-new user node; keep rendering defaults.
		return
	}

	var profile model.UserProfile
	if err := model.FromTree(snap.Value, &profile); err != nil {
		log.Log.WithError(err).Error("skip undecodable user node")
		return
	}

	s.mu.Lock()
	s.profile = profile
	s.loaded = true
	s.mu.Unlock()
}

func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

func (s *Session) Profile() model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Loaded reports whether at least one user-node push has been projected.
// Screens render with defaults until then.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Theme is the current display theme. Absent or unrecognized stored values
// read as light; only the literal "dark" activates the dark palette.
func (s *Session) Theme() model.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NormalizeTheme(s.profile.CurrentTheme)
}

// ToggleTheme flips the theme and persists the explicit enum value. The
// switch position maps one-to-one onto the stored value: right/dark,
// left/light. The local state changes optimistically; a failed write rolls
// it back so switch and persisted value never disagree for good.
func (s *Session) ToggleTheme(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	uid := s.uid
	current := model.NormalizeTheme(s.profile.CurrentTheme)
	next := current.Toggle()
	s.profile.CurrentTheme = next
	s.mu.Unlock()

	if err := s.gw.Write(ctx, gateway.UserThemePath(uid), string(next)); err != nil {
		log.Log.WithError(err).Error("theme write failed, rolling back")

		s.mu.Lock()
		s.profile.CurrentTheme = current
		s.mu.Unlock()
		return current, err
	}
	return next, nil
}
