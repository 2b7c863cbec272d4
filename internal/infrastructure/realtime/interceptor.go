package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
)

// State is the admission state of one realtime connection.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateSubscribing
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateSubscribing:
		return "subscribing"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotConnected     = errors.New("realtime: connect first")
	ErrAlreadyConnected = errors.New("realtime: already connected")
	ErrDisconnected     = errors.New("realtime: connection is closed")
)

// TokenValidator turns a bearer credential into an identity.
type TokenValidator interface {
	Validate(header string) (auth.Identity, error)
}

// IdentityResolver completes a validated identity, typically by looking the
// subject up in the member directory. An error refuses the connection.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id auth.Identity) (auth.Identity, error)
}

// SubscriptionAuthorizer decides whether an identity may subscribe to topic.
type SubscriptionAuthorizer interface {
	AuthorizeSubscription(ctx context.Context, id auth.Identity, topic string) error
}

// AdmissionError is returned for every refused frame. Code is what the client
// sees in the ERROR frame.
type AdmissionError struct {
	Code string
	Err  error
}

func (e *AdmissionError) Error() string { return e.Code + ": " + e.Err.Error() }

func (e *AdmissionError) Unwrap() error { return e.Err }

// Admission tracks one connection's progress through
// Connecting -> Authenticated -> Subscribing -> Disconnected.
type Admission struct {
	mu            sync.Mutex
	state         State
	identity      auth.Identity
	upgradeHeader string
}

// NewAdmission starts a connection in Connecting. upgradeAuthorization is the
// Authorization header of the HTTP upgrade request and serves as the fallback
// credential for CONNECT.
func NewAdmission(upgradeAuthorization string) *Admission {
	return &Admission{upgradeHeader: upgradeAuthorization}
}

func (a *Admission) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Interceptor gates every inbound frame before it reaches routing.
type Interceptor struct {
	validator  TokenValidator
	resolver   IdentityResolver
	authorizer SubscriptionAuthorizer
}

// NewInterceptor wires the validator with optional resolver and authorizer.
// A nil authorizer admits every subscription of an authenticated session.
func NewInterceptor(v TokenValidator, r IdentityResolver, az SubscriptionAuthorizer) *Interceptor {
	return &Interceptor{validator: v, resolver: r, authorizer: az}
}

// PreSend checks f against the admission state and advances it. It returns
// the session identity the frame must be handled as. A refused CONNECT moves
// the admission to Disconnected so no later frame is processed.
func (i *Interceptor) PreSend(ctx context.Context, a *Admission, f Frame) (auth.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateDisconnected {
		if f.Command == FrameDisconnect {
			return a.identity, nil
		}
		return auth.Identity{}, &AdmissionError{Code: "disconnected", Err: ErrDisconnected}
	}

	switch f.Command {
	case FrameConnect:
		if a.state != StateConnecting {
			return a.identity, &AdmissionError{Code: "already_connected", Err: ErrAlreadyConnected}
		}
		id, err := i.connect(ctx, a, f)
		if err != nil {
			a.state = StateDisconnected
			return auth.Identity{}, err
		}
		a.identity = id
		a.state = StateAuthenticated
		return id, nil

	case FrameDisconnect:
		a.state = StateDisconnected
		return a.identity, nil
	}

	if a.state == StateConnecting {
		return auth.Identity{}, &AdmissionError{Code: "not_connected", Err: ErrNotConnected}
	}

	if f.Command == FrameSubscribe {
		if i.authorizer != nil {
			if err := i.authorizer.AuthorizeSubscription(ctx, a.identity, f.Destination); err != nil {
				return a.identity, &AdmissionError{Code: "subscription_refused", Err: err}
			}
		}
		a.state = StateSubscribing
	}
	return a.identity, nil
}

// Close forces the admission into Disconnected, for transport level closes.
// It reports whether the state changed.
func (a *Admission) Close() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateDisconnected {
		return false
	}
	a.state = StateDisconnected
	return true
}

func (i *Interceptor) connect(ctx context.Context, a *Admission, f Frame) (auth.Identity, error) {
	credential := f.Header("Authorization")
	if credential == "" {
		credential = a.upgradeHeader
	}
	id, err := i.validator.Validate(credential)
	if err != nil {
		return auth.Identity{}, &AdmissionError{Code: authCode(err), Err: err}
	}
	if i.resolver != nil {
		id, err = i.resolver.ResolveIdentity(ctx, id)
		if err != nil {
			return auth.Identity{}, &AdmissionError{Code: "unknown_member", Err: err}
		}
	}
	return id, nil
}

func authCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, auth.ErrExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed_credential"
	}
}
