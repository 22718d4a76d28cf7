package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrWong99/lectern/internal/feedback"
	"github.com/MrWong99/lectern/internal/pipeline"
	"github.com/MrWong99/lectern/internal/resilience"
	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/gen"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadAudio accepts one multipart audio file, transcribes it and generates
// notes. A transcript too short to summarize or an unreachable generator
// degrades only that stage; the transcript is kept and reported either way.
func (s *Server) uploadAudio(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.sessions.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"audio\" is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading upload failed"})
		return
	}

	result, procErr := s.processor.Process(c.Request.Context(), header.Filename, data)
	if procErr != nil && !errors.Is(procErr, pipeline.ErrTranscriptTooShort) {
		status, msg := uploadErrorStatus(procErr)
		slog.Warn("audio processing failed", "session_id", id, "filename", header.Filename, "error", procErr)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	sess, err := s.sessions.SetTranscript(id, result.Transcript, result.Confidence, result.AudioDuration)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if errors.Is(procErr, pipeline.ErrTranscriptTooShort) {
		c.JSON(http.StatusOK, gin.H{
			"session": sess,
			"warning": "transcript is too short to summarize",
		})
		return
	}

	notes, err := s.generator.Notes(c.Request.Context(), result.Transcript)
	if err != nil {
		slog.Warn("notes generation failed", "session_id", id, "error", err)
		c.JSON(http.StatusOK, gin.H{
			"session": sess,
			"warning": "notes generation is currently unavailable",
		})
		return
	}

	sess, err = s.sessions.SetNotes(id, notes)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (s *Server) makeQuiz(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sess.Notes == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no notes available, upload audio first"})
		return
	}

	quiz, err := s.generator.Quiz(c.Request.Context(), sess.Notes)
	if err != nil {
		status, msg := generateErrorStatus(err)
		slog.Warn("quiz generation failed", "session_id", id, "error", err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	sess, err = s.sessions.SetQuiz(id, quiz)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) makeFlashcards(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sess.Notes == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no notes available, upload audio first"})
		return
	}

	cards, err := s.generator.Flashcards(c.Request.Context(), sess.Notes)
	if err != nil {
		status, msg := generateErrorStatus(err)
		slog.Warn("flashcard generation failed", "session_id", id, "error", err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	sess, err = s.sessions.SetFlashcards(id, cards)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

type feedbackRequest struct {
	Text string `json:"text"`
}

func (s *Server) postFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.feedback.Save(req.Text); err != nil {
		if errors.Is(err, feedback.ErrEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "feedback text must not be empty"})
			return
		}
		slog.Error("saving feedback failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving feedback failed"})
		return
	}

	if s.metrics != nil {
		s.metrics.FeedbackEntries.Add(c.Request.Context(), 1)
	}
	c.JSON(http.StatusCreated, gin.H{"status": "saved"})
}

// uploadErrorStatus maps pipeline errors to a response status and a
// user-facing message.
func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported audio format, use wav, mp3, m4a or ogg"
	case errors.Is(err, stt.ErrUnintelligible):
		return http.StatusUnprocessableEntity, "could not understand the audio"
	case errors.Is(err, stt.ErrUnavailable),
		errors.Is(err, resilience.ErrAllFailed),
		errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "transcription is currently unavailable"
	default:
		return http.StatusInternalServerError, "audio processing failed"
	}
}

func generateErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, gen.ErrUnavailable),
		errors.Is(err, resilience.ErrAllFailed),
		errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "generation is currently unavailable"
	default:
		return http.StatusInternalServerError, "generation failed"
	}
}
