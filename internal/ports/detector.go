package ports

import "github.com/TYPOWERS/fermprofile/internal/domain"

// Detector turns an aligned series into candidate segments ordered by start.
type Detector interface {
	Detect(samples []domain.AlignedSample) []domain.Span
	Name() string
}
