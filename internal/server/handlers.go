package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/symptom-checker/internal/service"
)

const (
	codeLLMUnavailable   = "llm_unavailable"
	codeUnsafeResponse   = "unsafe_response"
	codePersistence      = "persistence_failed"
	msgEmptySymptoms     = "Symptom input cannot be empty"
	msgLLMUnavailable    = "The symptom analysis service is temporarily unavailable. Please try again later."
	msgUnsafeResponse    = "The analysis could not be validated and was withheld for safety. Please try again."
	msgPersistenceFailed = "The analysis was produced but could not be saved to history."
)

type handler struct {
	symptoms *service.SymptomService
	log      *zap.Logger
}

type checkRequest struct {
	Symptoms string `json:"symptoms"`
}

func (h *handler) checkSymptoms(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	res, err := h.symptoms.Check(c.Request.Context(), req.Symptoms)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res.Suggestion)
	case errors.Is(err, service.ErrEmptySymptoms):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptySymptoms})
	case errors.Is(err, service.ErrGatewayUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgLLMUnavailable, "code": codeLLMUnavailable})
	case errors.Is(err, service.ErrMalformedResponse):
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnsafeResponse, "code": codeUnsafeResponse})
	case errors.Is(err, service.ErrPersistenceFailed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      msgPersistenceFailed,
			"code":       codePersistence,
			"suggestion": res.Suggestion,
		})
	default:
		h.log.Error("unexpected symptom check failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *handler) history(c *gin.Context) {
	records, err := h.symptoms.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history", "code": codePersistence})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}
