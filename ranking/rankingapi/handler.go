// Package rankingapi exposes the ranking pipeline over HTTP.
package rankingapi

import (
	"io"
	"strconv"

	"github.com/Abraxas-365/shortlist/pkg/kernel"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/rankingsrv"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for ranking operations
type Handlers struct {
	service *rankingsrv.Service
}

// NewHandlers creates a new ranking handlers instance
func NewHandlers(service *rankingsrv.Service) *Handlers {
	return &Handlers{
		service: service,
	}
}

// CreateSession opens a new ranking session
// POST /api/rankings
func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	var req ranking.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	session, err := h.service.CreateSession(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetSession resolves an existing session
// GET /api/rankings/:id
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	id := kernel.SessionID(c.Params("id"))
	session, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// ScoreSession scores a candidate batch against the job spec
// POST /api/rankings/:id/score
func (h *Handlers) ScoreSession(c *fiber.Ctx) error {
	id := kernel.SessionID(c.Params("id"))

	var req ranking.ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.ScoreSession(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// EnrichSession enriches candidates with external profile signals
// POST /api/rankings/:id/enrich
func (h *Handlers) EnrichSession(c *fiber.Ctx) error {
	id := kernel.SessionID(c.Params("id"))

	var req ranking.EnrichRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.EnrichSession(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RankSession returns the fused leaderboard for a session
// GET /api/rankings/:id/leaderboard
func (h *Handlers) RankSession(c *fiber.Ctx) error {
	id := kernel.SessionID(c.Params("id"))

	req := ranking.RankRequest{
		Weights: ranking.FusionWeights{
			Similarity: queryFloat(c, "weight_similarity", 0),
			Profile:    queryFloat(c, "weight_profile", 0),
		},
		MinScore: queryFloat(c, "min_score", 0),
		TopN:     c.QueryInt("top_n", 0),
	}

	resp, err := h.service.RankSession(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RunPipeline runs create-score-enrich-rank in one call
// POST /api/rankings/run
func (h *Handlers) RunPipeline(c *fiber.Ctx) error {
	var req ranking.RunPipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.RunPipeline(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ExtractCandidates converts uploaded resume files into candidate texts
// POST /api/rankings/extract (multipart form, field "files")
func (h *Handlers) ExtractCandidates(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	files := make(map[string][]byte)
	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			return ranking.ErrExtractionFailed().WithDetail("file", header.Filename)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return ranking.ErrExtractionFailed().WithDetail("file", header.Filename)
		}
		files[header.Filename] = data
	}

	resp, err := h.service.ExtractCandidates(c.Context(), files)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GenerateQuestions produces interview questions for one candidate
// POST /api/rankings/questions
func (h *Handlers) GenerateQuestions(c *fiber.Ctx) error {
	var req ranking.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.GenerateQuestions(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitRun queues a pipeline run for background processing
// POST /api/rankings/run_async
func (h *Handlers) SubmitRun(c *fiber.Ctx) error {
	var req ranking.RunPipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return ranking.ErrInvalidInput().WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.SubmitRun(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// GetRun resolves the status of a queued pipeline run
// GET /api/rankings/runs/:id
func (h *Handlers) GetRun(c *fiber.Ctx) error {
	resp, err := h.service.GetRunStatus(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// StoreStats returns session storage and run queue introspection
// GET /api/rankings/stats
func (h *Handlers) StoreStats(c *fiber.Ctx) error {
	stats, err := h.service.StoreStats(c.Context())
	if err != nil {
		return err
	}

	resp := fiber.Map{"store": stats}
	if queue, err := h.service.QueueStats(c.Context()); err == nil && queue != nil {
		resp["queue"] = queue
	}
	return c.JSON(resp)
}

func queryFloat(c *fiber.Ctx, key string, def float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// RegisterRoutes registers all ranking routes
func RegisterRoutes(app *fiber.App, handlers *Handlers) {
	api := app.Group("/api/rankings")

	api.Post("/", handlers.CreateSession)
	api.Post("/run", handlers.RunPipeline)
	api.Post("/run_async", handlers.SubmitRun)
	api.Get("/runs/:id", handlers.GetRun)
	api.Post("/extract", handlers.ExtractCandidates)
	api.Post("/questions", handlers.GenerateQuestions)
	api.Get("/stats", handlers.StoreStats)

	api.Get("/:id", handlers.GetSession)
	api.Post("/:id/score", handlers.ScoreSession)
	api.Post("/:id/enrich", handlers.EnrichSession)
	api.Get("/:id/leaderboard", handlers.RankSession)
}
