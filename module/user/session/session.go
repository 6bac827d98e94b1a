// Package session resolves a signed-in identity into a role and admin flag
// and gates request operations on them.
package session

import (
	"context"
	"errors"
	"sync"

	"HealthSeva/logger"
	"HealthSeva/module/user/model"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
)

// Identity is what the identity provider vouches for.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type State struct {
	LoggedIn bool       `json:"isLoggedIn"`
	Role     model.Role `json:"role"`
	Admin    bool       `json:"isAdmin"`
	Loading  bool       `json:"loading"`
	Identity *Identity  `json:"identity,omitempty"`
}

func signedOut() State {
	return State{Role: model.RoleUser}
}

type ProfileLookup interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
}

type AdminPolicy interface {
	IsAdmin(id Identity) bool
}

// Session is one client's view of who is signed in. Identity events come
// from the identity provider through IdentityChanged; observers registered
// with OnChange see every state transition in order.
type Session struct {
	profiles ProfileLookup
	policy   AdminPolicy
	signOut  func(ctx context.Context) error

	mu        sync.Mutex
	state     State
	gen       uint64
	observers map[int]func(State)
	nextObs   int

	notifyMu sync.Mutex
}

// New builds a signed-out session. signOut terminates the external session
// and may be nil.
func New(profiles ProfileLookup, policy AdminPolicy, signOut func(ctx context.Context) error) *Session {
	return &Session{
		profiles:  profiles,
		policy:    policy,
		signOut:   signOut,
		state:     signedOut(),
		observers: make(map[int]func(State)),
	}
}

// Resolved builds a session and resolves id right away; used per HTTP request.
func Resolved(ctx context.Context, profiles ProfileLookup, policy AdminPolicy, id *Identity) *Session {
	s := New(profiles, policy, nil)
	s.IdentityChanged(ctx, id)
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn and returns a function that removes it. fn runs
// synchronously and must not call back into methods that change the session.
func (s *Session) OnChange(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// IdentityChanged handles an identity event; nil means signed out. It blocks
// until the profile lookup finishes and returns the resolved state. A newer
// event that arrives meanwhile wins over this one.
func (s *Session) IdentityChanged(ctx context.Context, id *Identity) State {
	if id == nil {
		return s.reset()
	}

	ident := *id
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = State{
		LoggedIn: true,
		Role:     s.state.Role,
		Loading:  true,
		Identity: &ident,
	}
	if !s.state.Role.Valid() {
		s.state.Role = model.RoleUser
	}
	s.commitLocked()

	role := s.lookupRole(ctx, ident)
	admin := s.policy != nil && s.policy.IsAdmin(ident)

	s.mu.Lock()
	if s.gen != gen {
		cur := s.state
		s.mu.Unlock()
		return cur
	}
	s.state = State{LoggedIn: true, Role: role, Admin: admin, Identity: &ident}
	return s.commitLocked()
}

func (s *Session) lookupRole(ctx context.Context, id Identity) model.Role {
	if s.profiles == nil {
		return model.RoleUser
	}
	p, err := s.profiles.Get(ctx, id.ID)
	switch {
	case err == nil:
		return model.ParseRole(string(p.Role))
	case errors.Is(err, errs.ErrRecordNotFound):
		return model.RoleUser
	default:
		logger.Warn("[Session] profile lookup failed, using USER", zap.String("identity", id.ID), zap.Error(err))
		return model.RoleUser
	}
}

// Login records the role the client picked and moves the session into the
// resolving state. The profile lookup that follows the identity event
// overrides the role. Without an identity the gates still refuse.
func (s *Session) Login(role model.Role) {
	if !role.Valid() {
		role = model.RoleUser
	}
	s.mu.Lock()
	s.state.LoggedIn = true
	s.state.Loading = true
	s.state.Role = role
	s.commitLocked()
}

// Logout ends the external session and resets to signed out. The reset
// happens even when signing out fails; the error is returned.
func (s *Session) Logout(ctx context.Context) error {
	var err error
	if s.signOut != nil {
		err = s.signOut(ctx)
	}
	s.reset()
	return err
}

func (s *Session) reset() State {
	s.mu.Lock()
	s.gen++
	s.state = signedOut()
	return s.commitLocked()
}

// commitLocked unlocks s.mu and notifies observers with the committed state.
// notifyMu keeps notifications in commit order.
func (s *Session) commitLocked() State {
	st := s.state
	fns := make([]func(State), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
	return st
}

// RequireSignedIn fails with ErrNotLoggedIn for signed-out sessions.
func (st State) RequireSignedIn() error {
	if !st.LoggedIn || st.Identity == nil {
		return errs.ErrNotLoggedIn.Wrap()
	}
	return nil
}

func (st State) RequireRole(r model.Role) error {
	if err := st.RequireSignedIn(); err != nil {
		return err
	}
	if st.Role != r {
		return errs.ErrNoPermission.WrapMsg("role required", "role", r)
	}
	return nil
}

func (st State) RequireAdmin() error {
	if err := st.RequireSignedIn(); err != nil {
		return err
	}
	if !st.Admin {
		return errs.ErrNoPermission.WrapMsg("admin required")
	}
	return nil
}

// RequireAdminOr passes admins and the identity owner.
func (st State) RequireAdminOr(owner string) error {
	if err := st.RequireSignedIn(); err != nil {
		return err
	}
	if st.Admin || st.Identity.ID == owner {
		return nil
	}
	return errs.ErrNoPermission.WrapMsg("admin or owner required")
}
