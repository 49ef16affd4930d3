package domain

// Option is a selectable answer. The ID is the stable key used by the
// state machine and the recommendation table; Text is display copy the
// content team may edit freely.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Question is one screen of the questionnaire.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Subtitle string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Multi    bool     `json:"multi,omitempty" yaml:"multi,omitempty"`
	Options  []Option `json:"options" yaml:"options"`
}

// Option returns the option with the given ID, if present.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Definition is the full funnel content: the segmentation question plus
// the per-path question lists. Loaded from YAML by internal/funnel/content.
type Definition struct {
	Segmentation Question            `yaml:"segmentation"`
	Paths        map[Path][]Question `yaml:"paths"`
}

// Questions returns the follow-up question list for a path. An unset path
// has no questions.
func (d Definition) Questions(p Path) []Question {
	return d.Paths[p]
}

// LeadCaptureStep returns the step index of the lead capture screen for a
// path: segmentation is step 1, path questions occupy steps 2..N+1.
func (d Definition) LeadCaptureStep(p Path) int {
	return firstQuestionStep + len(d.Questions(p))
}

// TotalSteps returns the step count shown by progress rendering for a
// path: segmentation, the path's questions, lead capture, and the result.
// Recomputed whenever the path is set, since counts differ per path.
func (d Definition) TotalSteps(p Path) int {
	return len(d.Questions(p)) + 3
}
