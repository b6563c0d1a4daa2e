package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// AutoFL annotates projects through the auto-fl weak-labeling service,
// which assigns multi-granular domain labels to the files of a repository.
type AutoFL struct {
	endpoint string
	client   *http.Client
	logger   *logging.Logger
}

// NewAutoFL creates an annotator against endpoint. The timeout bounds one
// labeling request; annotating a large repository can take minutes.
func NewAutoFL(endpoint string, timeout time.Duration, logger *logging.Logger) *AutoFL {
	return &AutoFL{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("annotator"),
	}
}

// labelRequest is the service's analysis request body.
type labelRequest struct {
	Name      string   `json:"name"`
	Remote    string   `json:"remote"`
	Languages []string `json:"languages"`
}

// labelResponse mirrors the service's result envelope. Only the first
// ("current") version's files are consumed.
type labelResponse struct {
	Result struct {
		Taxonomy map[string]string `json:"taxonomy"`
		Versions []struct {
			Files map[string]fileEntry `json:"files"`
		} `json:"versions"`
	} `json:"result"`
}

type fileEntry struct {
	Path        string   `json:"path"`
	Language    string   `json:"language"`
	Content     string   `json:"content"`
	Identifiers []string `json:"identifiers"`
	Package     string   `json:"package"`
	Annotation  *struct {
		Distribution []float64 `json:"distribution"`
		Unannotated  bool      `json:"unannotated"`
	} `json:"annotation"`
}

// AnnotateProject requests file-level weak labels for the project and
// merges them into its Files map. An empty result is an AnnotationError.
func (a *AutoFL) AnnotateProject(ctx context.Context, p *project.Project) (*project.Project, error) {
	a.logger.Info(ctx, "requesting file annotations", zap.String("endpoint", a.endpoint))

	body, err := json.Marshal(labelRequest{
		Name:      p.Name,
		Remote:    p.Remote,
		Languages: []string{p.Language},
	})
	if err != nil {
		return nil, fmt.Errorf("annotator: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("annotator: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &AnnotationError{Project: p.Name, Reason: "labeling request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AnnotationError{
			Project: p.Name,
			Reason:  fmt.Sprintf("labeling service returned status %d", resp.StatusCode),
		}
	}

	var decoded labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &AnnotationError{Project: p.Name, Reason: "decoding labeling response", Err: err}
	}

	if len(decoded.Result.Versions) == 0 || len(decoded.Result.Versions[0].Files) == 0 {
		return nil, &AnnotationError{Project: p.Name, Reason: "labeling service returned no files"}
	}

	files := make(map[string]*project.File, len(decoded.Result.Versions[0].Files))
	for path, entry := range decoded.Result.Versions[0].Files {
		f := &project.File{
			Path:        entry.Path,
			Language:    entry.Language,
			Content:     entry.Content,
			Identifiers: entry.Identifiers,
			Package:     entry.Package,
		}
		if f.Path == "" {
			f.Path = path
		}
		if entry.Annotation != nil {
			f.Annotation = &project.Annotation{
				Distribution: entry.Annotation.Distribution,
				Unannotated:  entry.Annotation.Unannotated,
			}
		}
		files[path] = f
	}

	p.Files = files
	a.logger.Info(ctx, "merged file annotations", zap.Int("files", len(files)),
		zap.Int("taxonomy_classes", len(decoded.Result.Taxonomy)))
	return p, nil
}
