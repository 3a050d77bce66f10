package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store errors shared by every session store implementation.
var (
	ErrSessionNotFound     = errors.New("mock test session not found")
	ErrActiveSessionExists = errors.New("an active mock test session already exists for this course")
	ErrSessionNotActive    = errors.New("mock test session is not active")
	ErrAnswersChanged      = errors.New("mock test answers changed since the session was read")
)

const uniqueViolation = "23505"

const sessionColumns = `id, user_id, course_id, course_title, questions, answers, status,
	started_at, expires_at, submitted_at, duration_seconds, score, created_at, updated_at`

// MockTestSessionRepository persists mock test sessions in PostgreSQL.
// The question bank and the answers live in JSONB columns so a session is
// one row and every write is a single-row atomic statement.
type MockTestSessionRepository struct {
	pool *pgxpool.Pool
}

// NewMockTestSessionRepository creates a new MockTestSessionRepository.
func NewMockTestSessionRepository(pool *pgxpool.Pool) *MockTestSessionRepository {
	return &MockTestSessionRepository{pool: pool}
}

// FindActive returns the active session of a user on a course.
func (r *MockTestSessionRepository) FindActive(ctx context.Context, userID, courseID string) (*model.MockTestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM mock_test_sessions
		 WHERE user_id = $1 AND course_id = $2 AND status = 'active'
		 ORDER BY started_at DESC
		 LIMIT 1`, userID, courseID,
	))
}

// FindByID returns a session only if it belongs to userID.
func (r *MockTestSessionRepository) FindByID(ctx context.Context, sessionID uuid.UUID, userID string) (*model.MockTestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM mock_test_sessions
		 WHERE id = $1 AND user_id = $2`, sessionID, userID,
	))
}

// FindLastFinished returns the most recently finished session of a user on a course.
func (r *MockTestSessionRepository) FindLastFinished(ctx context.Context, userID, courseID string) (*model.MockTestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM mock_test_sessions
		 WHERE user_id = $1 AND course_id = $2 AND status IN ('submitted', 'expired')
		 ORDER BY submitted_at DESC NULLS LAST, updated_at DESC, started_at DESC
		 LIMIT 1`, userID, courseID,
	))
}

// ListFinished returns up to limit finished sessions, newest first.
func (r *MockTestSessionRepository) ListFinished(ctx context.Context, userID, courseID string, limit int) ([]model.MockTestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM mock_test_sessions
		 WHERE user_id = $1 AND course_id = $2 AND status IN ('submitted', 'expired')
		 ORDER BY submitted_at DESC NULLS LAST, updated_at DESC, started_at DESC
		 LIMIT $3`, userID, courseID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.MockTestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Create inserts a new active session. A second active session for the same
// user and course is rejected by the partial unique index.
func (r *MockTestSessionRepository) Create(ctx context.Context, s *model.MockTestSession) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(nonNilAnswers(s.Answers))
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO mock_test_sessions
		   (id, user_id, course_id, course_title, questions, answers, status,
		    started_at, expires_at, duration_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.CourseID, s.CourseTitle, questions, answers, s.Status,
		s.StartedAt, s.ExpiresAt, s.DurationSeconds,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrActiveSessionExists
		}
		return err
	}
	return nil
}

// Save writes the terminal fields (status, score, submitted_at) of s.
// Only an active row whose answers still equal s.Answers can be written.
// A finished row yields ErrSessionNotActive; an active row whose answers
// moved on since s was read yields ErrAnswersChanged.
func (r *MockTestSessionRepository) Save(ctx context.Context, s *model.MockTestSession) error {
	answers, err := json.Marshal(nonNilAnswers(s.Answers))
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE mock_test_sessions
		 SET status = $3, score = $4, submitted_at = $5, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'active' AND answers = $6::jsonb`,
		s.ID, s.UserID, s.Status, s.Score, s.SubmittedAt, answers,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status model.MockTestStatus
	err = r.pool.QueryRow(ctx,
		`SELECT status FROM mock_test_sessions WHERE id = $1 AND user_id = $2`,
		s.ID, s.UserID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotActive
		}
		return err
	}
	if status == model.MockTestStatusActive {
		return ErrAnswersChanged
	}
	return ErrSessionNotActive
}

// SaveAnswer upserts one answer by question index in a single conditional
// UPDATE, so concurrent saves on the same session never drop each other.
// It fails with ErrSessionNotActive when the session is finished or its
// deadline is not after now.
func (r *MockTestSessionRepository) SaveAnswer(ctx context.Context, sessionID uuid.UUID, userID string, a model.Answer, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mock_test_sessions
		 SET answers = (
		       SELECT COALESCE(jsonb_agg(m.elem ORDER BY (m.elem->>'questionIndex')::int), '[]'::jsonb)
		       FROM (
		         SELECT a.elem
		         FROM jsonb_array_elements(answers) AS a(elem)
		         WHERE (a.elem->>'questionIndex')::int <> $3
		         UNION ALL
		         SELECT jsonb_build_object('questionIndex', $3::int, 'selectedIndex', $4::int)
		       ) AS m(elem)
		     ),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'active' AND expires_at > $5`,
		sessionID, userID, a.QuestionIndex, a.SelectedIndex, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotActive
	}
	return nil
}

func scanSession(row pgx.Row) (*model.MockTestSession, error) {
	s := &model.MockTestSession{}
	var questions, answers []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.CourseID, &s.CourseTitle, &questions, &answers, &s.Status,
		&s.StartedAt, &s.ExpiresAt, &s.SubmittedAt, &s.DurationSeconds, &s.Score,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of session %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of session %s: %w", s.ID, err)
	}
	return s, nil
}

func nonNilAnswers(a []model.Answer) []model.Answer {
	if a == nil {
		return []model.Answer{}
	}
	return a
}
