package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/google/uuid"
)

// MemorySessionRepository is a process-local session store with the same
// guarantees as MockTestSessionRepository. It backs STORE_DRIVER=memory
// and the service tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.MockTestSession
	clock    func() time.Time
}

// NewMemorySessionRepository creates an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*model.MockTestSession),
		clock:    time.Now,
	}
}

// FindActive returns the newest active session of userID on courseID.
func (r *MemorySessionRepository) FindActive(_ context.Context, userID, courseID string) (*model.MockTestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.MockTestSession
	for _, s := range r.sessions {
		if s.UserID != userID || s.CourseID != courseID || s.Status != model.MockTestStatusActive {
			continue
		}
		if found == nil || s.StartedAt.After(found.StartedAt) {
			found = s
		}
	}
	if found == nil {
		return nil, ErrSessionNotFound
	}
	return found.Clone(), nil
}

// FindByID returns a session owned by userID.
func (r *MemorySessionRepository) FindByID(_ context.Context, sessionID uuid.UUID, userID string) (*model.MockTestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// FindLastFinished returns the most recently finished session on courseID.
func (r *MemorySessionRepository) FindLastFinished(ctx context.Context, userID, courseID string) (*model.MockTestSession, error) {
	finished, err := r.ListFinished(ctx, userID, courseID, 1)
	if err != nil {
		return nil, err
	}
	if len(finished) == 0 {
		return nil, ErrSessionNotFound
	}
	return &finished[0], nil
}

// ListFinished returns finished sessions on courseID, newest first.
func (r *MemorySessionRepository) ListFinished(_ context.Context, userID, courseID string, limit int) ([]model.MockTestSession, error) {
	r.mu.RLock()
	var out []model.MockTestSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.CourseID == courseID && s.Status.IsTerminal() {
			out = append(out, *s.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return finishedBefore(&out[j], &out[i]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create stores s as a new active session.
func (r *MemorySessionRepository) Create(_ context.Context, s *model.MockTestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.UserID == s.UserID && existing.CourseID == s.CourseID &&
			existing.Status == model.MockTestStatusActive {
			return ErrActiveSessionExists
		}
	}

	now := r.clock()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.Answers == nil {
		s.Answers = []model.Answer{}
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

// Save finalizes an active session whose answers still equal s.Answers.
func (r *MemorySessionRepository) Save(_ context.Context, s *model.MockTestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[s.ID]
	if !ok || stored.UserID != s.UserID || stored.Status != model.MockTestStatusActive {
		return ErrSessionNotActive
	}
	if !slices.Equal(stored.Answers, s.Answers) {
		return ErrAnswersChanged
	}

	stored.Status = s.Status
	stored.Score = cloneInt(s.Score)
	stored.SubmittedAt = cloneTime(s.SubmittedAt)
	stored.UpdatedAt = r.clock()
	return nil
}

// SaveAnswer upserts one answer while the session is active and before its deadline.
func (r *MemorySessionRepository) SaveAnswer(_ context.Context, sessionID uuid.UUID, userID string, a model.Answer, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[sessionID]
	if !ok || stored.UserID != userID || stored.Status != model.MockTestStatusActive ||
		!stored.ExpiresAt.After(now) {
		return ErrSessionNotActive
	}

	stored.UpsertAnswer(a)
	stored.UpdatedAt = r.clock()
	return nil
}

// finishedBefore orders finished sessions by submitted_at, then updated_at,
// then started_at. Sessions without a submission time sort oldest.
func finishedBefore(a, b *model.MockTestSession) bool {
	switch {
	case a.SubmittedAt == nil && b.SubmittedAt != nil:
		return true
	case a.SubmittedAt != nil && b.SubmittedAt == nil:
		return false
	case a.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt):
		return a.SubmittedAt.Before(*b.SubmittedAt)
	case !a.UpdatedAt.Equal(b.UpdatedAt):
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.StartedAt.Before(b.StartedAt)
	}
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
