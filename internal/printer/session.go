package printer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
)

// State is the state of a Session.
type State int

const (
	Idle State = iota
	Discovering
	Connected
	Printing
	Disconnected
	FailedNoDevice
	Failed
)

var stateNames = [...]string{
	Idle:           "idle",
	Discovering:    "discovering",
	Connected:      "connected",
	Printing:       "printing",
	Disconnected:   "disconnected",
	FailedNoDevice: "failed:no-device",
	Failed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

var transitions = map[State][]State{
	Idle:        {Discovering},
	Discovering: {Connected, FailedNoDevice, Failed},
	Connected:   {Printing},
	Printing:    {Disconnected},
}

// A Session prints one canvas on the first printer a driver discovers. A session is single use and not safe for
// concurrent use.
type Session struct {
	driver  Driver
	state   State
	history []State
	handle  Handle
}

func NewSession(driver Driver) *Session {
	return &Session{driver: driver, state: Idle, history: []State{Idle}}
}

func (s *Session) State() State {
	return s.state
}

// History returns every state the session has been in, oldest first.
func (s *Session) History() []State {
	return append([]State(nil), s.history...)
}

// Handle returns the printer the session connected to, if any.
func (s *Session) Handle() (Handle, bool) {
	return s.handle, s.state == Printing || s.state == Disconnected
}

func (s *Session) transition(to State) {
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			logger.Debug("Print session transition", zap.Stringer("from", s.state), zap.Stringer("to", to))
			s.state = to
			s.history = append(s.history, to)
			return
		}
	}
	panic(fmt.Errorf("printer: illegal session transition %v -> %v", s.state, to))
}

// Print discovers printers, connects to the first one, transfers c, and disconnects.
//
// Once a connection is established, Disconnect is always called exactly once, even if the transfer fails. There
// are no retries: a failed session reports the failure and stops.
func (s *Session) Print(ctx context.Context, c *canvas.Canvas) (err error) {
	if s.state != Idle {
		return ErrSessionUsed
	}
	if c == nil {
		return fmt.Errorf("printer: nil canvas")
	}

	s.transition(Discovering)
	handles, err := s.driver.Discover(ctx)
	if err != nil {
		s.transition(Failed)
		return fmt.Errorf("%w: %w", ErrDiscoveryFailure, err)
	}
	if len(handles) == 0 {
		s.transition(FailedNoDevice)
		logger.Info("No printer found")
		return ErrNoDeviceFound
	}

	h := handles[0]
	logger.Info("Connecting to printer", zap.Stringer("printer", h), zap.Int("discovered", len(handles)))
	if err := s.driver.Connect(ctx, h); err != nil {
		s.transition(Failed)
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailure, h, err)
	}
	s.handle = h
	s.transition(Connected)

	defer func() {
		s.transition(Disconnected)
		derr := s.driver.Disconnect(ctx, h)
		if derr == nil {
			logger.Info("Disconnected from printer", zap.Stringer("printer", h))
			return
		}
		logger.Warn("Failed to disconnect from printer", zap.Stringer("printer", h), zap.Error(derr))
		derr = fmt.Errorf("%w: %s: %w", ErrDisconnectFailure, h, derr)
		if err == nil {
			err = derr
		} else {
			err = errors.Join(err, derr)
		}
	}()

	s.transition(Printing)
	logger.Info("Printing canvas", zap.Stringer("printer", h), zap.Stringer("canvas", c))
	if err := s.driver.Transfer(ctx, h, c); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransferFailure, h, err)
	}
	return nil
}

// Print runs a fresh session that prints c with driver.
func Print(ctx context.Context, driver Driver, c *canvas.Canvas) error {
	return NewSession(driver).Print(ctx, c)
}
