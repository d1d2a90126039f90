package ports

import (
	"context"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

type ProfileSink interface {
	WriteProfiles(ctx context.Context, profiles []*domain.Profile) error
	Name() string
}
