package analysis

import "errors"

var ErrUnknownDetector = errors.New("unknown detector")
