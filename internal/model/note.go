package model

// GenerateNotesRequest is the payload for generating study notes for a lecture.
type GenerateNotesRequest struct {
	LectureTitle string `json:"lectureTitle" binding:"required,notblank,max=200"`
}

// NotesResponse carries generated study notes.
type NotesResponse struct {
	Notes  string `json:"notes"`
	Cached bool   `json:"cached"`
}
