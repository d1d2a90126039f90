package setpointcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

const variableKeyPrefix = "VariableKey,"

var ErrNoVariableKey = errors.New("no VariableKey header")

// ReadFile parses one setpoint export.
func ReadFile(path string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, err
	}
	defer f.Close()

	series, err := Parse(f)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	series.SourceFile = filepath.Base(path)
	if series.Parameter == "" {
		series.Parameter = ParameterName(series.SourceFile)
	}
	return series, nil
}

// Parse reads an export: free-form header lines, a "VariableKey,<name>" line,
// then "timestamp,value" rows. Blank, nan and unparseable rows are skipped.
// Samples come back sorted by time.
func Parse(r io.Reader) (domain.Series, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		series domain.Series
		inData bool
		lineNo int
	)
	for sc.Scan() {
		line := sc.Text()
		if lineNo == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lineNo++

		if !inData {
			if strings.HasPrefix(line, variableKeyPrefix) {
				series.Parameter = strings.TrimSpace(strings.TrimPrefix(line, variableKeyPrefix))
				inData = true
			}
			continue
		}

		s, ok := parseRow(line)
		if !ok {
			continue
		}
		series.Samples = append(series.Samples, s)
	}
	if err := sc.Err(); err != nil {
		return domain.Series{}, err
	}
	if !inData {
		return domain.Series{}, ErrNoVariableKey
	}

	sort.SliceStable(series.Samples, func(i, j int) bool {
		return series.Samples[i].Timestamp.Before(series.Samples[j].Timestamp)
	})
	return series, nil
}

func parseRow(line string) (domain.Sample, bool) {
	line = strings.TrimSpace(line)
	ts, raw, found := strings.Cut(line, ",")
	if !found {
		return domain.Sample{}, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return domain.Sample{}, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Sample{}, false
	}
	t, err := domain.ParseInstant(ts)
	if err != nil {
		return domain.Sample{}, false
	}
	return domain.Sample{Timestamp: t, Value: v}, true
}

// AddStepPoints makes held setpoints explicit: wherever two consecutive
// samples are more than gap apart, a copy of the earlier value is inserted one
// second (floored to the second) before the later sample.
func AddStepPoints(samples []domain.Sample, gap time.Duration) []domain.Sample {
	if len(samples) < 2 || gap <= 0 {
		return samples
	}
	out := make([]domain.Sample, 0, len(samples))
	for i, s := range samples {
		if i > 0 {
			prev := samples[i-1]
			if s.Timestamp.Sub(prev.Timestamp) > gap {
				out = append(out, domain.Sample{
					Timestamp: s.Timestamp.Add(-time.Second).Truncate(time.Second),
					Value:     prev.Value,
				})
			}
		}
		out = append(out, s)
	}
	return out
}
