// Package domain provides core business rules for the funnel bounded context.
// It holds the session state machine, the segmentation paths, and the plan
// recommendation table. The package is pure: no transport, storage, or
// framework imports.
package domain

// Path is the top-level visitor segment chosen at the segmentation question.
// It determines which follow-up questions and recommendation rules apply.
type Path string

const (
	PathUnset   Path = ""
	PathAdult   Path = "adult"
	PathChild   Path = "child"
	PathFamily  Path = "family"
	PathCompany Path = "company"
)

// ParsePath maps a segmentation option ID to a known path.
// Returns PathUnset and false for unknown values.
func ParsePath(optionID string) (Path, bool) {
	switch Path(optionID) {
	case PathAdult, PathChild, PathFamily, PathCompany:
		return Path(optionID), true
	}
	return PathUnset, false
}

// FallbackPath is applied when a segmentation option does not map to any
// known path. Leaving the path unset past segmentation was a latent defect
// in earlier funnel iterations; the adult path is the explicit default.
const FallbackPath = PathAdult
