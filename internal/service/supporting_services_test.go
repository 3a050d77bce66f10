package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/cache"
	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockNotesGenerator struct {
	mock.Mock
}

func (m *mockNotesGenerator) GenerateNotes(ctx context.Context, title string) (string, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Error(1)
}

func TestNoteServiceCachesByTitle(t *testing.T) {
	gen := &mockNotesGenerator{}
	gen.On("GenerateNotes", mock.Anything, "Closures").Return("## Closures", nil).Once()
	svc := NewNoteService(gen, cache.NewMemoryNotesCache(time.Hour), zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Generate(ctx, "Closures")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Generate(ctx, " closures ")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "## Closures", second.Notes)
	gen.AssertExpectations(t)
}

func TestNoteServiceErrors(t *testing.T) {
	gen := &mockNotesGenerator{}
	gen.On("GenerateNotes", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	svc := NewNoteService(gen, nil, zerolog.Nop())

	_, err := svc.Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Generate(context.Background(), "Goroutines")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestStatsServiceReadsProjection(t *testing.T) {
	stats := cache.NewMemoryCourseStats()
	_, err := stats.Record(context.Background(), "e1", "c1", 90, true)
	require.NoError(t, err)

	got, err := NewStatsService(stats).CourseStats(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Attempts)
	assert.Equal(t, 90.0, got.AverageScore)

	_, err = NewStatsService(stats).CourseStats(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportHistoryWritesWorkbook(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.start(t, "u1", "c1")
	require.NoError(t, f.svc.RecordAnswer(ctx, "u1", view.ID, 0, 0))
	_, err := f.svc.Submit(ctx, "u1", view.ID)
	require.NoError(t, err)

	data, err := NewExportService(f.svc).ExportHistory(ctx, "u1", "c1")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, historyHeaders, rows[0])
	assert.Equal(t, view.ID.String(), rows[1][0])
	assert.Equal(t, "submitted", rows[1][2])
	assert.Equal(t, "10", rows[1][3])
	assert.Equal(t, "Fail", rows[1][4])
}

func TestAuthServiceTokens(t *testing.T) {
	auth := NewAuthService(&config.Config{JWTSecret: "s3cret"})

	token, err := auth.GenerateToken("user-42", time.Hour)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)

	other := NewAuthService(&config.Config{JWTSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := auth.GenerateToken("user-42", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = NewAuthService(&config.Config{}).ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
