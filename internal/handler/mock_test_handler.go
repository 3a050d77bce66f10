package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/middleware"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/Aditya06pandey1368/LMS-Project/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MockTestHandler handles the mock test session endpoints.
type MockTestHandler struct {
	mockTestService *service.MockTestService
	exportService   *service.ExportService
	statsService    *service.StatsService
	log             zerolog.Logger
}

// NewMockTestHandler creates a new MockTestHandler.
func NewMockTestHandler(
	mockTestService *service.MockTestService,
	exportService *service.ExportService,
	statsService *service.StatsService,
	log zerolog.Logger,
) *MockTestHandler {
	return &MockTestHandler{
		mockTestService: mockTestService,
		exportService:   exportService,
		statsService:    statsService,
		log:             log.With().Str("component", "mocktest_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/mocktests/start
// Resumes the active session for the course or starts a new one.
func (h *MockTestHandler) Start(c *gin.Context) {
	var req model.StartMockTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.mockTestService.Start(c.Request.Context(), middleware.GetUserID(c), req.CourseID, req.CourseTitle)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// RecordAnswer godoc
// POST /api/v1/mocktests/answer
func (h *MockTestHandler) RecordAnswer(c *gin.Context) {
	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	err = h.mockTestService.RecordAnswer(c.Request.Context(), middleware.GetUserID(c), sessionID, *req.QuestionIndex, *req.SelectedIndex)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// Submit godoc
// POST /api/v1/mocktests/submit
// Scores the session. Submitting a finished session returns the stored result.
func (h *MockTestHandler) Submit(c *gin.Context) {
	var req model.SubmitMockTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.mockTestService.Submit(c.Request.Context(), middleware.GetUserID(c), sessionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetSession godoc
// GET /api/v1/mocktests/:sessionId
// GET /api/v1/mocktests/session/:sessionId
func (h *MockTestHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.mockTestService.GetSession(c.Request.Context(), middleware.GetUserID(c), sessionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GetLastResult godoc
// GET /api/v1/mocktests/last/:courseId
// Responds with "data": null when the user has no finished attempt.
func (h *MockTestHandler) GetLastResult(c *gin.Context) {
	summary, err := h.mockTestService.GetLastResult(c.Request.Context(), middleware.GetUserID(c), c.Param("courseId"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if summary == nil {
		response.Success(c, http.StatusOK, nil)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// History godoc
// GET /api/v1/mocktests/history/:courseId
func (h *MockTestHandler) History(c *gin.Context) {
	entries, err := h.mockTestService.History(c.Request.Context(), middleware.GetUserID(c), c.Param("courseId"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": entries})
}

// ExportHistory godoc
// GET /api/v1/mocktests/history/:courseId/export
// Streams the attempt history as an xlsx attachment.
func (h *MockTestHandler) ExportHistory(c *gin.Context) {
	courseID := c.Param("courseId")
	data, err := h.exportService.ExportHistory(c.Request.Context(), middleware.GetUserID(c), courseID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("mocktest-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// CourseStats godoc
// GET /api/v1/mocktests/stats/:courseId
func (h *MockTestHandler) CourseStats(c *gin.Context) {
	stats, err := h.statsService.CourseStats(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
