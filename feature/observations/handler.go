package observations

import (
	"errors"
	"io"

	"commscivet/core/logger"
	"commscivet/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for observations.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the observation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/observations")
	group.Post("/reconcile", h.HandleReconcile)
	group.Get("/schema", h.HandleSchema)
	group.Get("/runs/:run", h.HandleRunChanges)
	group.Get("/:identifier", h.HandleStatus)
}

// HandleReconcile reconciles an export against the feature table.
// @Summary Reconcile observations
// @Description Plans a reconciliation of an uploaded export (form file "export"), a bucket object or the latest export. With apply=true the plan is applied and its changes recorded.
// @Tags observations
// @Accept multipart/form-data
// @Produce json
// @Param export formData file false "CSV or XLSX export"
// @Param object query string false "Export object key in the bucket"
// @Param apply query bool false "Apply the plan"
// @Param purge query bool false "Delete rows missing from the export"
// @Param archive query bool false "Archive the run report"
// @Success 200 {object} RunResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Malformed export"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /observations/reconcile [post]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	exp := Export{Object: c.Query("object")}
	if fh, err := c.FormFile("export"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		exp.Name, exp.Data = fh.Filename, data
	}

	apply := c.QueryBool("apply", false)
	result, err := h.service.Run(c.UserContext(), RunOptions{
		Export:    exp,
		Purge:     c.QueryBool("purge", false),
		DryRun:    !apply,
		Confirmed: apply,
		Archive:   c.QueryBool("archive", false),
	})
	if err != nil {
		l.Error("Observation reconcile failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleStatus classifies a single observation.
// @Summary Observation status
// @Description Classifies one observation as new, updated, unchanged, missing or not_found against the configured export.
// @Tags observations
// @Produce json
// @Param identifier path string true "Observation id"
// @Success 200 {object} reconcile.Result
// @Failure 422 {object} map[string]string "Malformed export"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /observations/{identifier} [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.Status(c.UserContext(), c.Params("identifier"))
	if err != nil {
		l.Error("Observation status failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleSchema reports feature table columns that are missing.
// @Summary Check feature table schema
// @Tags observations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /observations/schema [get]
func (h *Handler) HandleSchema(c *fiber.Ctx) error {
	missing, err := h.service.CheckSchema(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"table":   h.service.cfg.Table,
		"valid":   len(missing) == 0,
		"missing": missing,
	})
}

// HandleRunChanges lists the changes recorded by a run.
// @Summary Run changes
// @Tags observations
// @Produce json
// @Param run path string true "Run id"
// @Success 200 {array} changelog.Entry
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /observations/runs/{run} [get]
func (h *Handler) HandleRunChanges(c *fiber.Ctx) error {
	entries, err := h.service.Changes(c.UserContext(), c.Params("run"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

func statusFor(err error) int {
	if errors.Is(err, reconcile.ErrMalformedRecord) {
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
