package ranking

import (
	"net/http"

	"github.com/Abraxas-365/shortlist/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("RANKING")

// Error codes - Ranking Pipeline
var (
	CodeInvalidInput      = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid ranking input")
	CodeSessionNotFound   = ErrRegistry.Register("SESSION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Ranking session not found")
	CodeStorageFailed     = ErrRegistry.Register("STORAGE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Session storage operation failed")
	CodeExternalService   = ErrRegistry.Register("EXTERNAL_SERVICE", errx.TypeExternal, http.StatusBadGateway, "Profile analysis service failed")
	CodeExtractionFailed  = ErrRegistry.Register("EXTRACTION_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Failed to extract text from file")
	CodeQuestionGenFailed = ErrRegistry.Register("QUESTION_GENERATION_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to generate interview questions")
	CodeRunNotFound       = ErrRegistry.Register("RUN_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Pipeline run not found")
	CodeQueueFailed       = ErrRegistry.Register("QUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Run queue operation failed")
)

// Helper functions
func ErrInvalidInput() *errx.Error {
	return ErrRegistry.New(CodeInvalidInput)
}

func ErrSessionNotFound() *errx.Error {
	return ErrRegistry.New(CodeSessionNotFound)
}

func ErrStorageFailed() *errx.Error {
	return ErrRegistry.New(CodeStorageFailed)
}

func ErrExternalService() *errx.Error {
	return ErrRegistry.New(CodeExternalService)
}

func ErrExtractionFailed() *errx.Error {
	return ErrRegistry.New(CodeExtractionFailed)
}

func ErrQuestionGenFailed() *errx.Error {
	return ErrRegistry.New(CodeQuestionGenFailed)
}

func ErrRunNotFound() *errx.Error {
	return ErrRegistry.New(CodeRunNotFound)
}

func ErrQueueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueFailed)
}
