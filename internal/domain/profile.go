package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the finished, ordered segment list for one parameter of one run.
type Profile struct {
	ID          uuid.UUID
	Parameter   string
	SourceFile  string
	ProcessType string
	RunStart    *time.Time
	RunEnd      *time.Time
	Segments    []Segment
	CreatedAt   time.Time
}

// NewProfile stamps a fresh identifier and creation time.
func NewProfile(series Series, bounds RunBoundaries, segs []Segment) *Profile {
	return &Profile{
		ID:         uuid.New(),
		Parameter:  series.Parameter,
		SourceFile: series.SourceFile,
		RunStart:   bounds.Start,
		RunEnd:     bounds.End,
		Segments:   segs,
		CreatedAt:  time.Now().UTC(),
	}
}
