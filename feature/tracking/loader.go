package tracking

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
	enabled bool
}

// NewFeature creates the tracking feature around an existing service.
func NewFeature(svc *Service) *Feature {
	return &Feature{handler: NewHandler(svc), enabled: svc.cfg.Enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return Dataset
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
