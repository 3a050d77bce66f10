package handler

import (
	"net/http"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/Aditya06pandey1368/LMS-Project/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NotesHandler serves generated lecture notes.
type NotesHandler struct {
	noteService *service.NoteService
	log         zerolog.Logger
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(noteService *service.NoteService, log zerolog.Logger) *NotesHandler {
	return &NotesHandler{
		noteService: noteService,
		log:         log.With().Str("component", "notes_handler").Logger(),
	}
}

// Generate godoc
// POST /api/v1/notes/generate
func (h *NotesHandler) Generate(c *gin.Context) {
	var req model.GenerateNotesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	notes, err := h.noteService.Generate(c.Request.Context(), req.LectureTitle)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, notes)
}
