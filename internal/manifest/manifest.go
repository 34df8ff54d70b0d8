// Package manifest loads batch submission jobs from YAML or JSON files.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samvad-hq/grader-client/internal/filecodec"
)

const (
	JobTypeOCR   = "ocr"
	JobTypeGrade = "grade"
)

// Job is one submission declared in a manifest. Relative file paths are
// resolved against the manifest's directory.
type Job struct {
	ID       string `json:"id" yaml:"id"`
	Type     string `json:"type" yaml:"type"`
	File     string `json:"file" yaml:"file"`
	Text     string `json:"text" yaml:"text"`
	TextFile string `json:"text_file" yaml:"text_file"`
}

type manifestFile struct {
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

// Load reads and validates the manifest at path.
func Load(path string) ([]Job, error) {
	var mf manifestFile
	if err := filecodec.DecodeFile(path, "manifest", &mf); err != nil {
		return nil, err
	}
	if len(mf.Jobs) == 0 {
		return nil, errors.New("manifest contains no jobs")
	}

	dir := filepath.Dir(strings.TrimSpace(path))
	seen := make(map[string]struct{}, len(mf.Jobs))
	jobs := make([]Job, len(mf.Jobs))
	for i := range mf.Jobs {
		job := sanitizeJob(mf.Jobs[i], dir)
		if err := validateJob(job); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if _, exists := seen[job.ID]; exists {
			return nil, fmt.Errorf("duplicate job id %q", job.ID)
		}
		seen[job.ID] = struct{}{}
		jobs[i] = job
	}
	return jobs, nil
}

// ResolveText returns the inline text or the contents of TextFile.
func (j Job) ResolveText() (string, error) {
	if j.TextFile == "" {
		return j.Text, nil
	}
	raw, err := os.ReadFile(j.TextFile)
	if err != nil {
		return "", fmt.Errorf("read text file for job %q: %w", j.ID, err)
	}
	return string(raw), nil
}

func sanitizeJob(j Job, dir string) Job {
	j.ID = strings.TrimSpace(j.ID)
	j.Type = strings.ToLower(strings.TrimSpace(j.Type))
	j.File = resolvePath(strings.TrimSpace(j.File), dir)
	j.TextFile = resolvePath(strings.TrimSpace(j.TextFile), dir)

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return j
}

func resolvePath(p, dir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func validateJob(j Job) error {
	switch j.Type {
	case JobTypeOCR:
		if j.File == "" {
			return fmt.Errorf("file is required for ocr job %q", j.ID)
		}
	case JobTypeGrade:
		if j.Text == "" && j.TextFile == "" {
			return fmt.Errorf("text or text_file is required for grade job %q", j.ID)
		}
		if j.Text != "" && j.TextFile != "" {
			return fmt.Errorf("grade job %q sets both text and text_file", j.ID)
		}
	case "":
		return fmt.Errorf("type is required for job %q", j.ID)
	default:
		return fmt.Errorf("unsupported job type %q for job %q", j.Type, j.ID)
	}
	return nil
}
