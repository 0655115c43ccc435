package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"voicerelay/internal/models"
	"voicerelay/internal/service/dispatch"
	"voicerelay/internal/service/intent"
	"voicerelay/internal/service/speech"
	"voicerelay/internal/service/upload"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (*models.Intent, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Handler wires HTTP routes to the pipeline services. Each request runs its
// stages strictly in sequence; nothing is shared between requests except
// the upload directory.
type Handler struct {
	store       *upload.Store
	transcriber Transcriber
	classifier  Classifier
	dispatcher  dispatch.Dispatcher
	synthesizer Synthesizer
}

// NewHandler constructs a Handler instance.
func NewHandler(store *upload.Store, transcriber Transcriber, classifier Classifier, dispatcher dispatch.Dispatcher, synthesizer Synthesizer) *Handler {
	return &Handler{
		store:       store,
		transcriber: transcriber,
		classifier:  classifier,
		dispatcher:  dispatcher,
		synthesizer: synthesizer,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.POST("/stt", h.speechToText)
	router.POST("/intent", h.parseIntent)
	router.POST("/execute", h.executeIntent)
	router.POST("/tts", h.textToSpeech)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Backend is running!"})
}

func (h *Handler) speechToText(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no audio file provided"})
		return
	}
	if file.Size > upload.MaxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	path, err := h.store.Save(file)
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}
	// The stored file must not outlive this request, on any exit path.
	defer func() {
		if err := h.store.Remove(path); err != nil {
			log.Printf("cleanup %s failed: %v", path, err)
		}
	}()

	audio, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open file failed"})
		return
	}
	defer audio.Close()

	text, err := h.transcriber.Transcribe(c.Request.Context(), audio, filepath.Base(file.Filename))
	if err != nil {
		if errors.Is(err, speech.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "speech service not configured"})
			return
		}
		log.Printf("stt error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "speech-to-text conversion failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) parseIntent(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text input is required"})
		return
	}

	parsed, err := h.classifier.Classify(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, intent.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "intent service not configured"})
			return
		}
		log.Printf("intent parsing error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "intent parsing failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, parsed)
}

func (h *Handler) executeIntent(c *gin.Context) {
	var in models.Intent
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent JSON is required"})
		return
	}
	if strings.TrimSpace(string(in.Action)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent action is required"})
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), &in)
	if err != nil {
		log.Printf("execution error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "workflow execution failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) textToSpeech(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text input is required"})
		return
	}

	audio, err := h.synthesizer.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, speech.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "speech service not configured"})
			return
		}
		log.Printf("tts error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "text-to-speech conversion failed",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `inline; filename="response.mp3"`)
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
