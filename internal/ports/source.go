package ports

import (
	"context"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// SeriesSource loads the recorded setpoint series of one run.
type SeriesSource interface {
	Load(ctx context.Context) (*domain.RunData, error)
	Name() string
}
