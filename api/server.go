package api

import (
	"context"
	"dm-scheduler/model"
	"dm-scheduler/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ScheduleReader is the read-only view of the schedule store served over HTTP.
type ScheduleReader interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]model.Schedule, error)
	Get(ctx context.Context, id int64) (*model.Schedule, error)
}

// Server exposes health and read-only schedule data for operators.
type Server struct {
	app   *fiber.App
	store ScheduleReader
	loc   *time.Location
	log   logrus.FieldLogger
}

type scheduleView struct {
	ID            int64                `json:"id"`
	UserID        string               `json:"user_id"`
	Message       string               `json:"message,omitempty"`
	AttachmentURL string               `json:"attachment_url,omitempty"`
	RunAt         time.Time            `json:"run_at"`
	RunAtLocal    string               `json:"run_at_local"`
	Status        model.ScheduleStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewServer(store ScheduleReader, loc *time.Location, log logrus.FieldLogger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
		}),
		store: store,
		loc:   loc,
		log:   log,
	}
	s.app.Use(recover.New())
	s.app.Get("/healthz", s.handleHealth)

	schedules := s.app.Group("/api/schedules")
	{
		schedules.Get("/", s.handleList)
		schedules.Get("/:id", s.handleGet)
	}
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("HTTP server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) view(sc model.Schedule) scheduleView {
	return scheduleView{
		ID:            sc.ID,
		UserID:        sc.UserID,
		Message:       sc.Content(),
		AttachmentURL: sc.AttachmentURL.String,
		RunAt:         sc.RunAt,
		RunAtLocal:    utils.FormatLocal(sc.RunAt, s.loc),
		Status:        sc.Status,
		CreatedAt:     sc.CreatedAt,
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.store.Ping(c.UserContext()); err != nil {
		s.log.WithError(err).Warn("Health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleList(c *fiber.Ctx) error {
	schedules, err := s.store.List(c.UserContext())
	if err != nil {
		s.log.WithError(err).Error("Failed to list schedules")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list schedules")
	}

	views := make([]scheduleView, 0, len(schedules))
	for _, sc := range schedules {
		views = append(views, s.view(sc))
	}
	return c.JSON(views)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid schedule id")
	}

	sc, err := s.store.Get(c.UserContext(), int64(id))
	if err != nil {
		s.log.WithError(err).WithField("schedule_id", id).Error("Failed to load schedule")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load schedule")
	}
	if sc == nil {
		return fiber.NewError(fiber.StatusNotFound, model.ErrNotFound.Error())
	}
	return c.JSON(s.view(*sc))
}
