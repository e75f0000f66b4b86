package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/elonfeng/postgrade/internal/store"
	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/features"
	"github.com/elonfeng/postgrade/pkg/review"
	"github.com/elonfeng/postgrade/pkg/score"
)

// Options wires the server's collaborators. Store and Reviewer are optional;
// the endpoints that need them answer 503 when they are missing.
type Options struct {
	Store    store.Store
	Engine   *score.Engine
	Reviewer review.Reviewer
	Port     int
	// Persist saves every scored draft, not only those that ask for it.
	Persist bool
	Logger  *zap.Logger
}

// Server provides the HTTP API.
type Server struct {
	store    store.Store
	engine   *score.Engine
	reviewer review.Reviewer
	port     int
	persist  bool
	log      *zap.Logger
	app      *fiber.App
}

// New creates a new HTTP server with its routes registered.
func New(o Options) *Server {
	if o.Port == 0 {
		o.Port = 8080
	}
	if o.Engine == nil {
		o.Engine = score.NewEngine(score.DefaultWeights())
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	s := &Server{
		store:    o.Store,
		engine:   o.Engine,
		reviewer: o.Reviewer,
		port:     o.Port,
		persist:  o.Persist,
		log:      o.Logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "postgrade",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Header: fiber.HeaderXRequestID, ContextKey: "requestid"}))
	s.app.Use(s.logRequests)

	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api/v1")
	api.Post("/score", s.handleScore)
	api.Post("/scan", s.handleScan)
	api.Post("/features", s.handleFeatures)
	api.Post("/review", s.handleReview)
	api.Get("/history", s.handleHistory)
	api.Get("/history/:id", s.handleHistoryItem)
	api.Get("/stats", s.handleStats)

	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// ListenAndServe starts the HTTP server. Blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("postgrade server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	}
	if id, ok := c.Locals("requestid").(string); ok {
		fields = append(fields, zap.String("request_id", id))
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request", append(fields, zap.Error(err))...)
	} else {
		s.log.Debug("request", fields...)
	}
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// scoreRequest is a draft plus optional account context.
type scoreRequest struct {
	Text         string             `json:"text"`
	MediaType    string             `json:"mediaType"`
	MediaCount   int                `json:"mediaCount"`
	IsThread     bool               `json:"isThread"`
	ThreadLength int                `json:"threadLength"`
	IsReply      bool               `json:"isReply"`
	QuoteTweet   bool               `json:"quoteTweet"`
	ScheduledAt  *time.Time         `json:"scheduledAt"`
	User         *score.UserContext `json:"user"`
	Save         bool               `json:"save"`
}

func (r scoreRequest) draft() score.DraftTweet {
	count := r.MediaCount
	media := score.ParseMediaType(r.MediaType)
	if media != score.MediaNone && count == 0 {
		count = 1
	}

	d := score.NewDraft(r.Text).WithMedia(media, count)
	d.IsThread = d.IsThread || r.IsThread
	if r.ThreadLength > 0 {
		d.ThreadLength = r.ThreadLength
	}
	d.IsReply = r.IsReply
	d.QuoteTweet = r.QuoteTweet
	if r.ScheduledAt != nil {
		d.ScheduledAt = *r.ScheduledAt
	}
	return d
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleScore(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result := s.engine.Score(req.draft(), req.User)
	resp := fiber.Map{"data": result}

	if (s.persist || req.Save) && s.store != nil {
		row := store.NewScoredPost(store.SourceAPI, "", req.Text, result)
		if err := s.store.SaveScore(c.UserContext(), row); err != nil {
			return err
		}
		resp["id"] = row.ID
	}

	return c.JSON(resp)
}

func (s *Server) handleScan(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(fiber.Map{"data": controversy.Scan(req.Text)})
}

func (s *Server) handleFeatures(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(fiber.Map{"data": features.Extract(req.Text)})
}

func (s *Server) handleReview(c *fiber.Ctx) error {
	if s.reviewer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, review.ErrNoReviewer.Error())
	}

	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 60*time.Second)
	defer cancel()

	r, err := s.reviewer.Review(ctx, req.Text)
	if errors.Is(err, review.ErrEmptyText) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"data": r})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.store == nil {
		return errNoStore
	}

	opts := store.ListOpts{
		Source:    c.Query("source"),
		Grade:     c.Query("grade"),
		RiskLevel: c.Query("risk_level"),
		Limit:     c.QueryInt("limit", 50),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "since must be RFC3339")
		}
		opts.Since = t
	}
	if v := c.Query("unalerted"); v != "" {
		opts.Unalerted, _ = strconv.ParseBool(v)
	}

	posts, err := s.store.ListScores(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":  posts,
		"count": len(posts),
	})
}

func (s *Server) handleHistoryItem(c *fiber.Ctx) error {
	if s.store == nil {
		return errNoStore
	}

	p, err := s.store.GetScore(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "scored post not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": p})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.store == nil {
		return errNoStore
	}

	st, err := s.store.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": st})
}

var errNoStore = fiber.NewError(fiber.StatusServiceUnavailable, "history store is not configured")
