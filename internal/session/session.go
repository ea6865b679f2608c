// Package session holds the state of one open animation panel: the working
// configuration, the debounced validation pass and the snapshot used when a
// prompt is sent.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"animation_panel_server/internal/debounce"
	"animation_panel_server/internal/sanitize"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/validation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownField    = errors.New("unknown field")
	ErrRejectedValue   = errors.New("value rejected")
	ErrInvalidOption   = errors.New("invalid option key")
)

// Editable field names accepted by ApplyEdit.
const (
	FieldType       = "type"
	FieldDuration   = "duration"
	FieldDelay      = "delay"
	FieldEasing     = "easing"
	FieldIterations = "iterations"
	FieldDirection  = "direction"
	FieldFillMode   = "fillMode"
)

// Fields lists the editable scalar fields in panel order.
var Fields = []string{FieldType, FieldDuration, FieldEasing, FieldDelay, FieldIterations, FieldDirection, FieldFillMode}

// ValidateFunc runs a whole-configuration validation.
type ValidateFunc func(types.AnimationConfig) validation.Result

type Session struct {
	ID string

	mu         sync.Mutex
	config     types.AnimationConfig
	result     validation.Result
	closed     bool
	lastActive time.Time
	now        func() time.Time

	validate  ValidateFunc
	snapshot  *Cell
	debouncer *debounce.Debouncer[types.AnimationConfig]
}

func newSession(id string, quiet time.Duration, validate ValidateFunc, now func() time.Time) *Session {
	if validate == nil {
		validate = validation.Config
	}
	if now == nil {
		now = time.Now
	}
	cfg := types.DefaultAnimationConfig()
	s := &Session{
		ID:         id,
		config:     cfg,
		result:     validate(cfg),
		lastActive: now(),
		now:        now,
		validate:   validate,
		snapshot:   NewCell(cfg),
	}
	s.debouncer = debounce.New(quiet, s.runValidation)
	return s
}

// runValidation is the debouncer's trailing-edge callback.
func (s *Session) runValidation(cfg types.AnimationConfig) {
	result := s.validate(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.result = result
	if result.Valid {
		s.snapshot.Store(cfg)
	}
}

// schedule queues a validation pass for the current config. s.mu must be held.
func (s *Session) schedule() {
	s.lastActive = s.now()
	s.debouncer.Push(s.config.Clone())
}

func (s *Session) lockOpen() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	return nil
}

// ApplyEdit sanitizes one raw form value and stores it. Numbers that cannot
// be parsed keep the current value; enum values outside their set are
// rejected with ErrRejectedValue.
func (s *Session) ApplyEdit(field, raw string) error {
	if err := s.lockOpen(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	switch field {
	case FieldType:
		t, ok := types.ParseAnimationType(raw)
		if !ok {
			return fmt.Errorf("%w: animation type %q", ErrRejectedValue, raw)
		}
		s.config.Type = t
	case FieldDuration:
		s.config.Duration = sanitize.Number(raw, s.config.Duration)
	case FieldDelay:
		s.config.Delay = sanitize.Number(raw, s.config.Delay)
	case FieldEasing:
		easing := sanitize.String(raw, types.MaxInputLength)
		if easing == "" {
			return fmt.Errorf("%w: empty easing", ErrRejectedValue)
		}
		s.config.Easing = easing
	case FieldIterations:
		it, err := types.ParseIterations(raw)
		if err != nil {
			fallback := s.config.Iterations.Count
			if s.config.Iterations.Infinite {
				fallback = types.MinIterations
			}
			it = types.Finite(sanitize.Number(raw, fallback))
		}
		if !it.Infinite && it.Count < 0 {
			it.Count = 0
		}
		s.config.Iterations = it
	case FieldDirection:
		d, ok := types.ParseDirection(raw)
		if !ok {
			return fmt.Errorf("%w: direction %q", ErrRejectedValue, raw)
		}
		s.config.Direction = d
	case FieldFillMode:
		f, ok := types.ParseFillMode(raw)
		if !ok {
			return fmt.Errorf("%w: fill mode %q", ErrRejectedValue, raw)
		}
		s.config.FillMode = f
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	s.schedule()
	return nil
}

// AddProperty appends a property. Duplicates and custom names that fail
// validation leave the list unchanged; the reasons are returned in the result.
func (s *Session) AddProperty(raw string) (validation.Result, error) {
	if err := s.lockOpen(); err != nil {
		return validation.Result{}, err
	}
	defer s.mu.Unlock()

	name := sanitize.String(raw, types.MaxInputLength)
	if s.config.HasProperty(name) {
		return validation.Result{Errors: []string{"Property already selected: " + name}}, nil
	}
	if !types.IsCommonProperty(name) {
		if r := validation.CustomProperty(name); !r.Valid {
			return r, nil
		}
	}

	s.config.Properties = append(s.config.Properties, name)
	s.schedule()
	return validation.Result{Valid: true, Errors: []string{}}, nil
}

// RemoveProperty reports whether name was present.
func (s *Session) RemoveProperty(name string) (bool, error) {
	if err := s.lockOpen(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	for i, p := range s.config.Properties {
		if p == name {
			s.config.Properties = append(s.config.Properties[:i:i], s.config.Properties[i+1:]...)
			s.schedule()
			return true, nil
		}
	}
	return false, nil
}

// ToggleProperty flips a checkbox of the common vocabulary and returns
// whether it is now selected. A re-selected property goes back to its
// vocabulary position among the other common entries.
func (s *Session) ToggleProperty(name string) (bool, error) {
	idx := commonIndex(name)
	if idx < 0 {
		return false, fmt.Errorf("%w: %q is not a common property", ErrRejectedValue, name)
	}
	if err := s.lockOpen(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	props := s.config.Properties
	for i, p := range props {
		if p == name {
			s.config.Properties = append(props[:i:i], props[i+1:]...)
			s.schedule()
			return false, nil
		}
	}

	at := len(props)
	for i, p := range props {
		if j := commonIndex(p); j > idx {
			at = i
			break
		}
	}
	next := make([]string, 0, len(props)+1)
	next = append(next, props[:at]...)
	next = append(next, name)
	s.config.Properties = append(next, props[at:]...)
	s.schedule()
	return true, nil
}

func commonIndex(name string) int {
	for i, p := range types.CommonProperties {
		if p == name {
			return i
		}
	}
	return -1
}

// SetOption stores a backend-specific option.
func (s *Session) SetOption(key string, value types.OptionValue) error {
	key = sanitize.String(key, types.MaxPropertyLength)
	if key == "" {
		return ErrInvalidOption
	}
	if err := s.lockOpen(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.config.CustomOptions == nil {
		s.config.CustomOptions = make(map[string]types.OptionValue)
	}
	s.config.CustomOptions[key] = value
	s.schedule()
	return nil
}

func (s *Session) RemoveOption(key string) (bool, error) {
	if err := s.lockOpen(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if _, ok := s.config.CustomOptions[key]; !ok {
		return false, nil
	}
	delete(s.config.CustomOptions, key)
	s.schedule()
	return true, nil
}

// Replace swaps in a whole configuration. It is not corrected; the next
// validation pass reports whatever is out of domain.
func (s *Session) Replace(cfg types.AnimationConfig) error {
	if err := s.lockOpen(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.config = cfg.Clone()
	if s.config.CustomOptions == nil {
		s.config.CustomOptions = make(map[string]types.OptionValue)
	}
	s.schedule()
	return nil
}

// Validate settles any pending pass immediately and returns the latest result.
func (s *Session) Validate() (validation.Result, error) {
	if err := s.lockOpen(); err != nil {
		return validation.Result{}, err
	}
	s.lastActive = s.now()
	s.mu.Unlock()

	// a pass the timer already settled may still be storing its result
	s.debouncer.Flush()
	s.debouncer.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, nil
}

// Config returns a copy of the working configuration, valid or not.
func (s *Session) Config() types.AnimationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Result is the outcome of the last completed validation pass.
func (s *Session) Result() validation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot returns the last configuration confirmed valid. Edits still
// waiting on the debouncer are not included.
func (s *Session) Snapshot() types.AnimationConfig {
	return s.snapshot.Load()
}

func (s *Session) Pending() bool {
	return s.debouncer.Pending()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close cancels any pending validation. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.debouncer.Cancel()
}
