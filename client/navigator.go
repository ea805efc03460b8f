package client

import (
	"sync"

	"github.com/pkg/errors"
)

// Screen identifies one screen of the app. The set is closed: navigation is
// checked against an explicit transition table instead of the original
// client's string-keyed route lookup, so an impossible route is an error at
// the call site rather than a silent no-op in the navigation library.
type Screen string

const (
	ScreenLogin        Screen = "Login"
	ScreenRegister     Screen = "Register"
	ScreenFeed         Screen = "Feed"
	ScreenCreateRecipe Screen = "CreateRecipe"
	ScreenProfile      Screen = "Profile"
	ScreenRecipeDetail Screen = "RecipeDetail"
)

var AllScreen = []Screen{
	ScreenLogin,
	ScreenRegister,
	ScreenFeed,
	ScreenCreateRecipe,
	ScreenProfile,
	ScreenRecipeDetail,
}

func (s Screen) IsValid() bool {
	for _, screen := range AllScreen {
		if s == screen {
			return true
		}
	}
	return false
}

func (s Screen) String() string {
	return string(s)
}

// transitions is the app's navigation graph: the login stack on top, the
// authenticated drawer/tab screens below it. Sign-out is not listed because
// it resets the stack unconditionally.
var transitions = map[Screen][]Screen{
	ScreenLogin:        {ScreenRegister, ScreenFeed},
	ScreenRegister:     {ScreenLogin},
	ScreenFeed:         {ScreenCreateRecipe, ScreenProfile, ScreenRecipeDetail},
	ScreenCreateRecipe: {ScreenFeed, ScreenProfile},
	ScreenProfile:      {ScreenFeed, ScreenCreateRecipe},
	ScreenRecipeDetail: {ScreenFeed},
}

func (s Screen) CanNavigateTo(to Screen) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Navigator holds the screen stack. Push/replace mirror the original stack
// navigator's navigate/replace; Reset is the unconditional jump used by
// sign-out.
type Navigator struct {
	mu    sync.Mutex
	stack []Screen
}

func NewNavigator() *Navigator {
	return &Navigator{stack: []Screen{ScreenLogin}}
}

func (n *Navigator) Current() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Navigate pushes to onto the stack if the transition table allows it.
func (n *Navigator) Navigate(to Screen) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	current := n.stack[len(n.stack)-1]
	if !current.CanNavigateTo(to) {
		return errors.Errorf("no transition from %s to %s", current, to)
	}
	n.stack = append(n.stack, to)
	return nil
}

// Replace swaps the top of the stack, the original's navigation.replace used
// after a successful sign-in so Back cannot return to the login screen.
func (n *Navigator) Replace(to Screen) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	current := n.stack[len(n.stack)-1]
	if !current.CanNavigateTo(to) {
		return errors.Errorf("no transition from %s to %s", current, to)
	}
	n.stack[len(n.stack)-1] = to
	return nil
}

// Back pops the current screen. The root screen cannot be popped.
func (n *Navigator) Back() (Screen, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.stack) == 1 {
		return n.stack[0], errors.New("already at the root screen")
	}
	n.stack = n.stack[:len(n.stack)-1]
	return n.stack[len(n.stack)-1], nil
}

// Reset discards the stack and starts over at root.
func (n *Navigator) Reset(root Screen) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = []Screen{root}
}
