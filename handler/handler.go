package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"audio-recorder/apperror"
	"audio-recorder/dto"
	"audio-recorder/pkg/token"
	"audio-recorder/pkg/ws"
	"audio-recorder/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Handler struct {
	recordings service.RecordingService
	uploads    service.UploadCoordinator
	assembler  service.AssemblyEngine
}

func NewHandler(recordings service.RecordingService, uploads service.UploadCoordinator, assembler service.AssemblyEngine) *Handler {
	return &Handler{
		recordings: recordings,
		uploads:    uploads,
		assembler:  assembler,
	}
}

func RegisterRoutes(r *gin.Engine, h *Handler, tokens *token.Manager, hub *ws.Hub) {
	r.GET("/ws", ws.Serve(hub, tokens))

	api := r.Group("/api", AuthRequired(tokens))
	api.POST("/recordings", h.CreateRecording)
	api.GET("/recordings", h.ListRecordings)
	api.GET("/recordings/stats", h.GetStats)
	api.GET("/recordings/:id", h.GetRecording)
	api.POST("/recordings/:id/chunks", h.UploadChunk)
	api.GET("/recordings/:id/stream", h.StreamAudio)
	api.PATCH("/recordings/:id", h.UpdateRecording)
	api.DELETE("/recordings/:id", h.DeleteRecording)
}

func (h *Handler) CreateRecording(c *gin.Context) {
	var req dto.CreateRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recording, err := h.recordings.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recording)
}

func (h *Handler) ListRecordings(c *gin.Context) {
	recordings, err := h.recordings.List(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordings)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.recordings.Stats(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetRecording(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recording, err := h.recordings.Get(c.Request.Context(), id, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recording)
}

func (h *Handler) UploadChunk(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("chunk")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no audio chunk provided"})
		return
	}

	chunkOrder, err := strconv.Atoi(c.PostForm("chunkOrder"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chunk order"})
		return
	}

	mimeType := c.PostForm("mimeType")
	if mimeType == "" {
		mimeType = file.Header.Get("Content-Type")
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(src)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.uploads.AcceptChunk(c.Request.Context(), id, callerID(c), chunkOrder, payload, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) StreamAudio(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	audio, err := h.assembler.Assemble(c.Request.Context(), id, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", audio.FileName))
	c.Data(http.StatusOK, audio.ContentType, audio.Data)
}

func (h *Handler) UpdateRecording(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recording, err := h.recordings.Update(c.Request.Context(), id, callerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recording)
}

func (h *Handler) DeleteRecording(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recordings.Delete(c.Request.Context(), id, callerID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "recording deleted"})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recording id"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the failure taxonomy onto HTTP statuses. Unknown
// failures are logged and surfaced as an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrInvalidState), errors.Is(err, apperror.ErrBadInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
