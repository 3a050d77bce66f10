//go:build e2e
// +build e2e

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/database"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPostgresRepo migrates the database behind DATABASE_URL and returns a
// repository scoped to a fresh user id. Rows of that user are removed when
// the test ends.
func newPostgresRepo(t *testing.T) (*MockTestSessionRepository, string) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, database.MigrateUp(dbURL))

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)

	userID := "repo-e2e-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM mock_test_sessions WHERE user_id = $1`, userID)
		pool.Close()
	})
	return NewMockTestSessionRepository(pool), userID
}

func pgNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func finish(s *model.MockTestSession, status model.MockTestStatus, score int, at time.Time) {
	s.Status = status
	s.Score = &score
	s.SubmittedAt = &at
}

func TestPostgresCreateRejectsSecondActiveSession(t *testing.T) {
	repo, user := newPostgresRepo(t)
	ctx := context.Background()
	now := pgNow()

	require.NoError(t, repo.Create(ctx, newActiveSession(user, "c1", now)))
	assert.ErrorIs(t, repo.Create(ctx, newActiveSession(user, "c1", now)), ErrActiveSessionExists)
	assert.NoError(t, repo.Create(ctx, newActiveSession(user, "c2", now)))
}

func TestPostgresSaveAnswerRejectsPastDeadline(t *testing.T) {
	repo, user := newPostgresRepo(t)
	ctx := context.Background()
	now := pgNow()
	s := newActiveSession(user, "c1", now)
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, repo.SaveAnswer(ctx, s.ID, user, model.Answer{QuestionIndex: 1, SelectedIndex: 1}, now))
	err := repo.SaveAnswer(ctx, s.ID, user, model.Answer{QuestionIndex: 2, SelectedIndex: 2}, s.ExpiresAt)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	stored, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	assert.Equal(t, []model.Answer{{QuestionIndex: 1, SelectedIndex: 1}}, stored.Answers)
}

func TestPostgresFinishedSessionIsReadOnly(t *testing.T) {
	repo, user := newPostgresRepo(t)
	ctx := context.Background()
	now := pgNow()
	s := newActiveSession(user, "c1", now)
	require.NoError(t, repo.Create(ctx, s))

	snapshot, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	finish(snapshot, model.MockTestStatusSubmitted, 0, now)
	require.NoError(t, repo.Save(ctx, snapshot))

	err = repo.SaveAnswer(ctx, s.ID, user, model.Answer{QuestionIndex: 0, SelectedIndex: 0}, now)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	finish(snapshot, model.MockTestStatusExpired, 100, now)
	assert.ErrorIs(t, repo.Save(ctx, snapshot), ErrSessionNotActive)

	stored, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	assert.Equal(t, model.MockTestStatusSubmitted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 0, *stored.Score)
	assert.Empty(t, stored.Answers)
}

func TestPostgresExpiredSessionIsReadOnly(t *testing.T) {
	repo, user := newPostgresRepo(t)
	ctx := context.Background()
	now := pgNow()
	s := newActiveSession(user, "c1", now)
	require.NoError(t, repo.Create(ctx, s))

	snapshot, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	finish(snapshot, model.MockTestStatusExpired, 0, s.ExpiresAt)
	require.NoError(t, repo.Save(ctx, snapshot))

	err = repo.SaveAnswer(ctx, s.ID, user, model.Answer{QuestionIndex: 0, SelectedIndex: 0}, now)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	assert.ErrorIs(t, repo.Save(ctx, snapshot), ErrSessionNotActive)
}

func TestPostgresSaveRejectsStaleAnswers(t *testing.T) {
	repo, user := newPostgresRepo(t)
	ctx := context.Background()
	now := pgNow()
	s := newActiveSession(user, "c1", now)
	require.NoError(t, repo.Create(ctx, s))

	snapshot, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAnswer(ctx, s.ID, user, model.Answer{QuestionIndex: 0, SelectedIndex: 3}, now))

	finish(snapshot, model.MockTestStatusSubmitted, 0, now)
	assert.ErrorIs(t, repo.Save(ctx, snapshot), ErrAnswersChanged)

	fresh, err := repo.FindByID(ctx, s.ID, user)
	require.NoError(t, err)
	assert.Equal(t, model.MockTestStatusActive, fresh.Status)
	finish(fresh, model.MockTestStatusSubmitted, 10, now)
	assert.NoError(t, repo.Save(ctx, fresh))
}

func TestPostgresSaveUnknownSession(t *testing.T) {
	repo, user := newPostgresRepo(t)
	s := newActiveSession(user, "c1", pgNow())
	finish(s, model.MockTestStatusSubmitted, 0, pgNow())
	assert.ErrorIs(t, repo.Save(context.Background(), s), ErrSessionNotActive)
}
