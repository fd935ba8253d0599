// Package auth is the customer session state machine: modal visibility,
// the signed-in user, and a mocked credential check against an in-memory
// user directory.
package auth

// State is the auth state. User is nil when signed out.
type State struct {
	User              *User `json:"user"`
	IsLoading         bool  `json:"isLoading"`
	IsLoginModalOpen  bool  `json:"isLoginModalOpen"`
	IsSignupModalOpen bool  `json:"isSignupModalOpen"`
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Action is the closed set of auth intents.
type Action interface {
	authAction()
}

type (
	LoginStart   struct{}
	LoginSuccess struct{ User User }
	LoginFailure struct{}
	Logout       struct{}
	OpenLogin    struct{}
	CloseLogin   struct{}
	OpenSignup   struct{}
	CloseSignup  struct{}
	UpdateUser   struct{ User User }
	Hydrate      struct{ User *User }
)

func (LoginStart) authAction()   {}
func (LoginSuccess) authAction() {}
func (LoginFailure) authAction() {}
func (Logout) authAction()       {}
func (OpenLogin) authAction()    {}
func (CloseLogin) authAction()   {}
func (OpenSignup) authAction()   {}
func (CloseSignup) authAction()  {}
func (UpdateUser) authAction()   {}
func (Hydrate) authAction()      {}

// Reduce returns the state after applying a. A new *User is allocated
// whenever the user changes, so callers can detect changes by pointer.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoginStart:
		s.IsLoading = true
	case LoginSuccess:
		u := a.User
		s.User = &u
		s.IsLoading = false
		s.IsLoginModalOpen = false
		s.IsSignupModalOpen = false
	case LoginFailure:
		s.IsLoading = false
	case Logout:
		s.User = nil
		s.IsLoading = false
	case OpenLogin:
		s.IsLoginModalOpen = true
		s.IsSignupModalOpen = false
	case CloseLogin:
		s.IsLoginModalOpen = false
	case OpenSignup:
		s.IsSignupModalOpen = true
		s.IsLoginModalOpen = false
	case CloseSignup:
		s.IsSignupModalOpen = false
	case UpdateUser:
		u := a.User
		s.User = &u
	case Hydrate:
		if a.User == nil {
			s.User = nil
		} else {
			u := *a.User
			s.User = &u
		}
	}
	return s
}
