package service

import (
	"context"
	"fmt"
	"sync"

	"legaltriad-backend/models"
)

// Session is the state of the single active study session: the topic, the
// three document sets, the last result or error and the in-flight submission.
// All fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	topic string
	sets  map[models.Category]models.DocumentSet

	result   *models.AnalysisResult
	errMsg   string
	errKind  string
	inFlight bool
	progress *ProgressRun
	cancel   context.CancelFunc

	// generation increments on every submission and reset so that a
	// superseded submission cannot write into newer state
	generation uint64
}

// NewSession creates an empty session
func NewSession() *Session {
	s := &Session{}
	s.clearLocked()
	return s
}

// SessionState is a point-in-time copy of a Session for presentation
type SessionState struct {
	Topic         string                 `json:"topic"`
	Law           []string               `json:"law"`
	Doctrine      []string               `json:"doctrine"`
	Jurisprudence []string               `json:"jurisprudence"`
	InFlight      bool                   `json:"in_flight"`
	Progress      float64                `json:"progress"`
	Step          string                 `json:"step,omitempty"`
	Result        *models.AnalysisResult `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ErrorKind     string                 `json:"error_kind,omitempty"`
}

// Snapshot returns the current state
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		Topic:         s.topic,
		Law:           s.sets[models.CategoryLaw].Names(),
		Doctrine:      s.sets[models.CategoryDoctrine].Names(),
		Jurisprudence: s.sets[models.CategoryJurisprudence].Names(),
		InFlight:      s.inFlight,
		Result:        s.result,
		Error:         s.errMsg,
		ErrorKind:     s.errKind,
	}
	if s.progress != nil {
		st.Progress = s.progress.Value()
	}
	if st.InFlight {
		st.Step = ProgressStep(st.Progress)
	}
	return st
}

// SetTopic replaces the topic
func (s *Session) SetTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topic = topic
}

// Documents returns a copy of the set for a category
func (s *Session) Documents(category models.Category) models.DocumentSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[category].Clone()
}

// Result returns the last accepted result, or nil
func (s *Session) Result() *models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// AddFiles encodes a batch into the category's set.
// Sets cannot change while a submission is in flight.
func (s *Session) AddFiles(ctx context.Context, category models.Category, files []RawFile) (models.DocumentSet, error) {
	current, gen, err := s.editableSet(category)
	if err != nil {
		return nil, err
	}

	// encoding happens outside the lock
	updated, err := AddFiles(ctx, category, current, files)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.inFlight {
		return nil, fmt.Errorf("%w: session changed while files were being read", ErrSubmissionInFlight)
	}
	s.sets[category] = updated
	return updated.Clone(), nil
}

// RemoveFile deletes the element at index from the category's set
func (s *Session) RemoveFile(category models.Category, index int) (models.DocumentSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return nil, ErrSubmissionInFlight
	}
	updated, err := RemoveFile(s.sets[category], index)
	if err != nil {
		return nil, err
	}
	s.sets[category] = updated
	return updated.Clone(), nil
}

// Reset discards all state unconditionally. An in-flight submission is
// cancelled and its outcome dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.progress != nil {
		s.progress.Stop()
	}
	s.generation++
	s.clearLocked()
}

func (s *Session) editableSet(category models.Category) (models.DocumentSet, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return nil, 0, ErrSubmissionInFlight
	}
	return s.sets[category].Clone(), s.generation, nil
}

func (s *Session) clearLocked() {
	s.topic = ""
	s.sets = map[models.Category]models.DocumentSet{
		models.CategoryLaw:           {},
		models.CategoryDoctrine:      {},
		models.CategoryJurisprudence: {},
	}
	s.result = nil
	s.errMsg = ""
	s.errKind = ""
	s.inFlight = false
	s.progress = nil
	s.cancel = nil
}

// request copies the inputs of a submission
func (s *Session) requestLocked() models.AnalysisRequest {
	return models.AnalysisRequest{
		Topic:         s.topic,
		Law:           s.sets[models.CategoryLaw].Clone(),
		Doctrine:      s.sets[models.CategoryDoctrine].Clone(),
		Jurisprudence: s.sets[models.CategoryJurisprudence].Clone(),
	}
}

func (s *Session) failLocked(err error) {
	s.errMsg = UserMessage(err)
	s.errKind = ErrorKind(err)
}
