// Package intake captures public leads: wizard applications, contact
// inquiries and newsletter signups.
package intake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/domain/wizard"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrWizardNotFound is returned for unknown or expired wizard sessions
var ErrWizardNotFound = shared.NewDomainError("WIZARD_NOT_FOUND", "Application session not found or expired")

// ApplicationSaver persists a submitted application
type ApplicationSaver interface {
	SaveApplication(ctx context.Context, app lead.LoanApplication) (lead.LoanApplication, error)
}

// WizardConfig holds wizard session settings
type WizardConfig struct {
	SubtypeAdvanceDelay time.Duration // Cosmetic pause after choosing a subtype
	SessionTTL          time.Duration // Idle sessions are dropped by Sweep; zero keeps them
}

type wizardSession struct {
	mu       sync.Mutex
	w        *wizard.Wizard
	lastSeen time.Time // guarded by WizardService.mu
}

// WizardService holds open wizard sessions keyed by ID
type WizardService struct {
	saver   ApplicationSaver
	config  WizardConfig
	metrics *telemetry.ConsoleMetrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*wizardSession
}

// NewWizardService creates a wizard service. metrics may be nil.
func NewWizardService(saver ApplicationSaver, cfg WizardConfig, metrics *telemetry.ConsoleMetrics, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		saver:    saver,
		config:   cfg,
		metrics:  metrics,
		logger:   logger.Named("wizard"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*wizardSession),
	}
}

// Open starts a fresh wizard at step 1
func (s *WizardService) Open() (uuid.UUID, wizard.State) {
	id := uuid.New()
	w := wizard.New()
	s.mu.Lock()
	s.sessions[id] = &wizardSession{w: w, lastSeen: s.now()}
	s.mu.Unlock()
	return id, w.State()
}

// Close discards a wizard session. Closing an unknown session is a no-op.
func (s *WizardService) Close(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Get returns the session's current state
func (s *WizardService) Get(id uuid.UUID) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return nil })
}

// SelectTrack chooses the application track
func (s *WizardService) SelectTrack(id uuid.UUID, track lead.Track) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return w.SelectTrack(track) })
}

// SelectSubtype chooses the track's subtype, then waits out the configured
// cosmetic delay before returning the advanced state
func (s *WizardService) SelectSubtype(ctx context.Context, id uuid.UUID, subtype string) (wizard.State, error) {
	state, err := s.with(id, func(w *wizard.Wizard) error { return w.SelectSubtype(subtype) })
	if err != nil || s.config.SubtypeAdvanceDelay <= 0 {
		return state, err
	}
	timer := time.NewTimer(s.config.SubtypeAdvanceDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return state, nil
}

// Next advances one step
func (s *WizardService) Next(id uuid.UUID) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return w.Next() })
}

// Back goes back one step
func (s *WizardService) Back(id uuid.UUID) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return w.Back() })
}

// UpdateProfile replaces the business profile
func (s *WizardService) UpdateProfile(id uuid.UUID, p wizard.Profile) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return w.UpdateProfile(p) })
}

// UpdateContact replaces the contact block
func (s *WizardService) UpdateContact(id uuid.UUID, c wizard.Contact) (wizard.State, error) {
	return s.with(id, func(w *wizard.Wizard) error { return w.UpdateContact(c) })
}

// Submit sends the application to the persistence layer. The returned
// state is populated on failure too, carrying the inline error.
func (s *WizardService) Submit(ctx context.Context, id uuid.UUID) (wizard.State, error) {
	ctx, span := telemetry.StartSpan(ctx, "wizard", "submit")
	var track lead.Track
	state, err := s.with(id, func(w *wizard.Wizard) error {
		track = w.State().Track
		return w.Submit(ctx, wizard.SubmitterFunc(s.submit))
	})
	telemetry.End(span, err)

	if !errors.Is(err, ErrWizardNotFound) && !errors.Is(err, wizard.ErrWrongStep) {
		s.metrics.RecordWizardSubmission(ctx, string(track), err)
	}
	if err == nil {
		logger.WithLogger(ctx, s.logger).Info("Application submitted",
			zap.String("application_id", state.ApplicationID),
			zap.String("track", string(track)),
		)
	}
	return state, err
}

func (s *WizardService) submit(ctx context.Context, app lead.LoanApplication) (string, error) {
	saved, err := s.saver.SaveApplication(ctx, app)
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

// Sweep drops sessions idle longer than the configured TTL
func (s *WizardService) Sweep() int {
	if s.config.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.config.SessionTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions
func (s *WizardService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// with runs fn on the session's wizard under its lock and returns the
// resulting state, which is populated even when fn fails
func (s *WizardService) with(id uuid.UUID, fn func(w *wizard.Wizard) error) (wizard.State, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return wizard.State{}, ErrWizardNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	err := fn(sess.w)
	return sess.w.State(), err
}
