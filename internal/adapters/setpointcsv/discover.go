package setpointcsv

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var uuidPrefix = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}`)

// Files is the set of setpoint exports found in a run folder.
type Files struct {
	Named    []string // human-readable parameter names
	Variable []string // exports keyed by a variable UUID
}

// All returns named exports first, then variable ones.
func (f Files) All() []string {
	return append(append([]string(nil), f.Named...), f.Variable...)
}

// Discover lists the *_SP*.csv exports in dir.
func Discover(dir string) (Files, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_SP*.csv"))
	if err != nil {
		return Files{}, err
	}
	var files Files
	for _, m := range matches {
		if IsVariableExport(filepath.Base(m)) {
			files.Variable = append(files.Variable, m)
		} else {
			files.Named = append(files.Named, m)
		}
	}
	byName := func(list []string) func(i, j int) bool {
		return func(i, j int) bool {
			return strings.ToLower(filepath.Base(list[i])) < strings.ToLower(filepath.Base(list[j]))
		}
	}
	sort.SliceStable(files.Named, byName(files.Named))
	sort.SliceStable(files.Variable, byName(files.Variable))
	return files, nil
}

// IsVariableExport reports whether the export is named by a variable UUID
// rather than a parameter name.
func IsVariableExport(filename string) bool {
	return uuidPrefix.MatchString(ParameterName(filename))
}

// ParameterName is the part of an export file name before "_SP".
func ParameterName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if name, _, found := strings.Cut(base, "_SP"); found {
		return name
	}
	return base
}

// RunStartMarker and RunEndMarker are the event labels that bound a run.
const (
	RunStartMarker = "Inoculation"
	RunEndMarker   = "Unloading"
)

// FindRunStart returns the inoculation timestamp from the reference times
// export, or "" when there is none.
func FindRunStart(dir string) (string, error) {
	return findMarker(filepath.Join(dir, "*Reference*times*.csv"), RunStartMarker)
}

// FindRunEnd returns the unloading timestamp from the state export, or "".
func FindRunEnd(dir string) (string, error) {
	return findMarker(filepath.Join(dir, "State*.csv"), RunEndMarker)
}

func findMarker(pattern, marker string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", err
	}
	sort.Strings(matches)

	f, err := os.Open(matches[0])
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, marker) {
			ts, _, _ := strings.Cut(line, ",")
			return strings.TrimSpace(strings.TrimPrefix(ts, "\ufeff")), nil
		}
	}
	return "", sc.Err()
}
