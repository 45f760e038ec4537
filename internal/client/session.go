package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/petstate"
)

// DefaultDecayInterval matches the browser client's tick
const DefaultDecayInterval = time.Minute

// ErrNoPet is returned for pet actions before a pet is adopted
var ErrNoPet = errors.New("no pet adopted")

// ErrSessionClosed is returned after Close
var ErrSessionClosed = errors.New("session closed")

// EventKind names something the player should be told about
type EventKind int

// Event kinds
const (
	EventLevelUp EventKind = iota + 1
	EventDistress
)

func (k EventKind) String() string {
	switch k {
	case EventLevelUp:
		return "level_up"
	case EventDistress:
		return "distress"
	default:
		return "unknown"
	}
}

// Event carries the pet state at the time it happened
type Event struct {
	Kind EventKind
	Pet  models.Pet
}

// Session is a logged-in player with a local copy of their pet. Actions are
// previewed locally, then replaced by the server's answer.
type Session struct {
	client *Client
	log    logrus.FieldLogger

	mu     sync.Mutex
	tokens *Tokens
	pet    *models.Pet
	closed bool

	events chan Event

	decayOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewSession logs in and loads the user's pet, if any
func (c *Client) NewSession(ctx context.Context, username, password string, log logrus.FieldLogger) (*Session, error) {
	tokens, err := c.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client: c,
		log:    logging.Component(log, "client"),
		tokens: tokens,
		events: make(chan Event, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := s.Sync(ctx); err != nil && !errors.Is(err, ErrNoPet) {
		return nil, err
	}
	return s, nil
}

// Events delivers level-up and distress notifications. Events are dropped
// when nobody reads them.
func (s *Session) Events() <-chan Event {
	return s.events
}

// User returns the logged-in user
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.User
}

// Pet returns a copy of the local pet state
func (s *Session) Pet() (models.Pet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pet == nil {
		return models.Pet{}, false
	}
	return *s.pet, true
}

// Sync replaces the local pet with the server's copy
func (s *Session) Sync(ctx context.Context) error {
	pet, err := s.client.GetPet(ctx, s.token())
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return ErrNoPet
		}
		return err
	}
	s.mu.Lock()
	s.pet = pet
	s.mu.Unlock()
	return nil
}

// Adopt validates locally before calling the server
func (s *Session) Adopt(ctx context.Context, name string, petType models.PetType) (models.Pet, error) {
	if _, err := petstate.NewPet(name, petType, time.Now()); err != nil {
		return models.Pet{}, err
	}

	pet, err := s.client.CreatePet(ctx, s.token(), name, petType)
	if err != nil {
		return models.Pet{}, err
	}
	s.mu.Lock()
	s.pet = pet
	s.mu.Unlock()
	return *pet, nil
}

// Do applies feed, play or clean. The local copy is updated optimistically and
// then reconciled with the server. On failure the local copy is restored
// unless a tick or Sync replaced the preview while the request was in flight.
func (s *Session) Do(ctx context.Context, actionName string) (models.Pet, error) {
	action, err := petstate.ParseAction(actionName)
	if err != nil {
		return models.Pet{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Pet{}, ErrSessionClosed
	}
	if s.pet == nil {
		s.mu.Unlock()
		return models.Pet{}, ErrNoPet
	}
	before := *s.pet
	preview, err := petstate.Apply(before, action, petstate.DefaultRules)
	if err != nil {
		s.mu.Unlock()
		return models.Pet{}, err
	}
	optimistic := &preview.Pet
	s.pet = optimistic
	token := s.tokens.Token
	s.mu.Unlock()

	res, err := s.client.Interact(ctx, token, string(action))
	if err != nil {
		s.mu.Lock()
		if s.pet == optimistic {
			s.pet = &before
		} else {
			s.log.WithField("action", action).Debug("local pet changed during failed action; keeping newer state")
		}
		s.mu.Unlock()
		return models.Pet{}, err
	}

	server := res.Pet
	if server.Level != preview.Pet.Level || server.XP != preview.Pet.XP {
		s.log.WithFields(logrus.Fields{
			"action":       action,
			"local_level":  preview.Pet.Level,
			"local_xp":     preview.Pet.XP,
			"server_level": server.Level,
			"server_xp":    server.XP,
		}).Debug("local preview diverged from server")
	}

	s.mu.Lock()
	s.pet = &server
	s.mu.Unlock()

	if res.LeveledUp {
		s.emit(Event{Kind: EventLevelUp, Pet: server})
	}
	return server, nil
}

// Standing returns the player's leaderboard rank
func (s *Session) Standing(ctx context.Context) (*Standing, error) {
	return s.client.Standing(ctx, s.token())
}

// StartDecay runs the local decay tick until ctx ends or Close is called.
// Only the first call starts a ticker.
func (s *Session) StartDecay(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultDecayInterval
	}
	s.decayOnce.Do(func() {
		go s.decayLoop(ctx, interval)
	})
}

func (s *Session) decayLoop(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.pet == nil {
		s.mu.Unlock()
		return
	}
	out := petstate.Decay(*s.pet)
	s.pet = &out.Pet
	s.mu.Unlock()

	if out.Distress {
		s.emit(Event{Kind: EventDistress, Pet: out.Pet})
	}
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		s.log.WithField("event", e.Kind.String()).Debug("event dropped")
	}
}

// Close stops the decay ticker and logs out
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	token := s.tokens.Token
	s.mu.Unlock()

	close(s.stop)
	started := true
	s.decayOnce.Do(func() { started = false })
	if started {
		<-s.done
	}

	return s.client.Logout(ctx, token)
}

func (s *Session) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Token
}
