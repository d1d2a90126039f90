package profile

import (
	"fmt"
	"math"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// Point is one vertex of the plotted profile.
type Point struct {
	Hours float64 `json:"time_hours"`
	Value float64 `json:"value"`
}

// Timeline lays segs end to end from hour zero. Constants, ramps and PIDs
// contribute their two end points; a PWM segment is drawn as at least ten
// rectangular pulses.
func Timeline(segs []domain.Segment) []Point {
	var (
		pts []Point
		now float64
	)
	for _, seg := range segs {
		d := seg.Duration()
		switch s := seg.(type) {
		case domain.Constant:
			pts = append(pts, Point{now, s.Setpoint}, Point{now + d, s.Setpoint})
		case domain.Ramp:
			pts = append(pts, Point{now, s.StartValue}, Point{now + d, s.EndValue})
		case domain.Pid:
			pts = append(pts, Point{now, s.Setpoint}, Point{now + d, s.Setpoint})
		case domain.Pwm:
			pts = append(pts, pwmPoints(s, now)...)
		default:
			panic(fmt.Sprintf("profile: unknown segment variant %T", seg))
		}
		now += d
	}
	return pts
}

func pwmPoints(p domain.Pwm, start float64) []Point {
	if p.DurationHours <= 0 {
		return nil
	}
	cycles := int(math.Max(10, math.Floor(p.DurationHours/5)))
	cycle := p.DurationHours / float64(cycles)
	high := cycle * p.PulsePercent / 100

	pts := make([]Point, 0, cycles*5)
	now := start
	for i := 0; i < cycles; i++ {
		pts = append(pts,
			Point{now, p.Low},
			Point{now, p.High},
			Point{now + high, p.High},
			Point{now + high, p.Low},
			Point{now + cycle, p.Low},
		)
		now += cycle
	}
	return pts
}
