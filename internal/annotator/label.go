package annotator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fyrsmithlabs/archminer/internal/project"
)

// ErrUnannotated means a file's distribution is not meaningful and cannot
// yield a label.
var ErrUnannotated = errors.New("annotator: file is unannotated")

// Label derives the semantic label for an annotation: the taxonomy entry
// at the argmax of its distribution. The label is a view, recomputed on
// demand rather than persisted, since the taxonomy can evolve between
// service versions.
//
// Unannotated files never contribute a label, regardless of their
// distribution values.
func Label(a *project.Annotation, taxonomy map[string]string) (string, error) {
	if a == nil || a.Unannotated {
		return "", ErrUnannotated
	}
	if len(a.Distribution) == 0 {
		return "", fmt.Errorf("annotator: empty distribution")
	}

	argmax := 0
	for i, v := range a.Distribution {
		if v > a.Distribution[argmax] {
			argmax = i
		}
	}

	label, ok := taxonomy[strconv.Itoa(argmax)]
	if !ok {
		return "", fmt.Errorf("annotator: taxonomy has no class %d", argmax)
	}
	return label, nil
}
