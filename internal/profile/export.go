package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// ExportKey names the profile array inside an export, e.g. "temperature_profile".
func ExportKey(processType string) string {
	p := strings.ToLower(strings.TrimSpace(processType))
	if p == "" {
		return "profile"
	}
	return strings.ReplaceAll(p, " ", "_") + "_profile"
}

// Export renders segs as {"<process>_profile": [...]}.
func Export(processType string, segs []domain.Segment) ([]byte, error) {
	doc := map[string][]Record{ExportKey(processType): Records(segs)}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return data, nil
}

// ParseExport reads either an export object or a bare record array.
func ParseExport(data []byte) (key string, segs []domain.Segment, err error) {
	var records []Record
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &records); err != nil {
			return "", nil, fmt.Errorf("decode records: %w", err)
		}
	} else {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", nil, fmt.Errorf("decode export: %w", err)
		}
		for k, raw := range doc {
			if k != "profile" && !strings.HasSuffix(k, "_profile") {
				continue
			}
			if key != "" {
				return "", nil, errors.New("export holds more than one profile")
			}
			key = k
			if err := json.Unmarshal(raw, &records); err != nil {
				return "", nil, fmt.Errorf("decode %s: %w", k, err)
			}
		}
		if key == "" {
			return "", nil, errors.New("export holds no profile")
		}
	}

	segs, err = Segments(records)
	if err != nil {
		return "", nil, err
	}
	return key, segs, nil
}
