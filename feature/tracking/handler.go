package tracking

import (
	"bytes"
	"errors"
	"io"
	"time"

	"commscivet/core/logger"
	"commscivet/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for species tracking.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the tracking routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/tracking")
	group.Post("/diff", h.HandleDiff)
}

// HandleDiff diffs two tracking snapshots.
// @Summary Diff species tracking snapshots
// @Description Compares the old and new tracking snapshots (uploaded form files "old" and "new", or the configured tables) keyed by ELSUBID.
// @Tags tracking
// @Accept multipart/form-data
// @Produce json
// @Param old formData file false "Old snapshot (CSV or XLSX)"
// @Param new formData file false "New snapshot (CSV or XLSX)"
// @Param export_date query string false "Export date (YYYY-MM-DD)"
// @Param record query bool false "Append the changes to the change log"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {object} DiffResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Malformed snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /tracking/diff [post]
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	opts := DiffOptions{Record: c.QueryBool("record", false)}
	if raw := c.Query("export_date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "export_date must be YYYY-MM-DD"})
		}
		opts.ExportDate = d
	}

	var err error
	if opts.Old, err = formSnapshot(c, "old"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if opts.New, err = formSnapshot(c, "new"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.service.Diff(c.UserContext(), opts)
	if err != nil {
		l.Error("Tracking diff failed", zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, reconcile.ErrMalformedRecord) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if c.Query("format") == "xlsx" {
		var buf bytes.Buffer
		if err := WriteReport(&buf, result.Changes); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment("tracking-changes-" + result.RunID + ".xlsx")
		return c.Send(buf.Bytes())
	}

	return c.JSON(result)
}

// formSnapshot reads an optional uploaded file.
func formSnapshot(c *fiber.Ctx, field string) (Snapshot, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return Snapshot{}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Name: fh.Filename, Data: data}, nil
}
