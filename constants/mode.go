package constants

import (
	"fmt"
	"strings"
)

// OutputMode selects the shape of the extraction result.
type OutputMode string

const (
	// ModeText joins page texts with newlines.
	ModeText OutputMode = "text"
	// ModeLines flattens pages into an ordered list of lines.
	ModeLines OutputMode = "lines"
)

// Profile selects the preprocessing and recognition tradeoff.
type Profile string

const (
	// ProfileFast converts to grayscale and uses the engine defaults.
	ProfileFast Profile = "fast"
	// ProfileAccurate adds denoising, binarization and a tuned engine config.
	ProfileAccurate Profile = "accurate"
)

// ParseProfile accepts "fast" or "accurate" in any case.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileFast:
		return ProfileFast, nil
	case ProfileAccurate:
		return ProfileAccurate, nil
	default:
		return "", fmt.Errorf("unknown ocr profile %q (want fast or accurate)", s)
	}
}

func (p Profile) Valid() bool {
	return p == ProfileFast || p == ProfileAccurate
}

func (m OutputMode) Valid() bool {
	return m == ModeText || m == ModeLines
}
