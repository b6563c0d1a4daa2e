package project

// File is one source file's metadata. Path and Language are always set;
// the remaining fields come from the annotation service when available.
type File struct {
	Path        string   `json:"path"`
	Language    string   `json:"language"`
	Content     string   `json:"content,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Package     string   `json:"package,omitempty"`

	// Annotation holds the weak label distribution, if the labeling
	// service returned one for this file.
	Annotation *Annotation `json:"annotation,omitempty"`
}

// Annotation is a weak semantic label expressed as a probability
// distribution over the labeling service's taxonomy.
type Annotation struct {
	// Distribution holds one non-negative value per taxonomy class,
	// summing to at most 1. It may be incomplete when Unannotated is set.
	Distribution []float64 `json:"distribution"`

	// Unannotated means the distribution is not meaningful and must not
	// be used to derive a label.
	Unannotated bool `json:"unannotated"`
}
