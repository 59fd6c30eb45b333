package session

import (
	"context"
	"sync"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/auth"
)

// State is a snapshot of who is signed in. User is nil when signed out.
type State struct {
	User   *model.User
	Role   model.Role
	Tokens *auth.TokenPair
}

// SignedIn reports whether the state holds a user
func (s State) SignedIn() bool { return s.User != nil }

// Context is the application-wide auth state, created once at startup and
// passed explicitly to whatever needs the current user
type Context struct {
	svc *AuthService

	mu        sync.RWMutex
	state     State
	claims    *auth.Claims
	listeners map[int]func(State)
	next      int
}

func NewContext(svc *AuthService) *Context {
	return &Context{svc: svc, listeners: make(map[int]func(State))}
}

// Current returns the current state
func (c *Context) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnAuthStateChange calls cb with the current state right away and again
// after every sign-in and sign-out. The returned func unsubscribes.
func (c *Context) OnAuthStateChange(cb func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.listeners[id] = cb
	current := c.state
	c.mu.Unlock()

	cb(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SignIn verifies credentials and loads the profile. A missing profile is
// reported as *apperr.NotFoundError and leaves the context signed out.
func (c *Context) SignIn(ctx context.Context, email, password string) error {
	_, tokens, err := c.svc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	user, claims, err := c.svc.Authenticate(ctx, tokens.AccessToken)
	if err != nil {
		return err
	}

	c.set(State{User: user, Role: user.Role, Tokens: tokens}, claims)
	return nil
}

// SignUp creates the account and signs it in
func (c *Context) SignUp(ctx context.Context, in SignUpInput) error {
	user, tokens, err := c.svc.SignUp(ctx, in)
	if err != nil {
		return err
	}

	_, claims, err := c.svc.Authenticate(ctx, tokens.AccessToken)
	if err != nil {
		return err
	}

	c.set(State{User: user, Role: user.Role, Tokens: tokens}, claims)
	return nil
}

// SignOut clears the state even when revoking the token fails
func (c *Context) SignOut(ctx context.Context) error {
	c.mu.RLock()
	claims := c.claims
	c.mu.RUnlock()

	err := c.svc.SignOut(ctx, claims, false)
	c.set(State{}, nil)
	return err
}

// Refresh reloads the profile, e.g. after it was edited
func (c *Context) Refresh(ctx context.Context) error {
	c.mu.RLock()
	state, claims := c.state, c.claims
	c.mu.RUnlock()
	if !state.SignedIn() {
		return nil
	}

	user, err := c.svc.Profile(ctx, state.User.ID)
	if err != nil {
		return err
	}
	state.User = user
	state.Role = user.Role
	c.set(state, claims)
	return nil
}

func (c *Context) set(state State, claims *auth.Claims) {
	c.mu.Lock()
	c.state = state
	c.claims = claims
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}
