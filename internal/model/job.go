package model

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// JobConfig is the immutable record the scheduler builds from a media event
// and inserts into its pending/active tables.
type JobConfig struct {
	Name       string // display name, stem of the relative path
	SourcePath string // absolute source path; also the job identifier
	TempPrefix string // absolute directory+stem under which intermediates are created
}

// NewJobConfig builds the JobConfig for a media ref under the given job
// root, per section 4.4: src = libRoot⊕rel, tempPrefix = jobRoot⊕dir(rel)⊕stem(rel).
func NewJobConfig(ref MediaRef, jobRoot string) JobConfig {
	rel := ref.RelPath
	return JobConfig{
		Name:       Stem(rel),
		SourcePath: ref.SourcePath(),
		TempPrefix: JoinPath(jobRoot, JoinPath(Dir(rel), Stem(rel))),
	}
}

// Job is the mutable record threaded through a job's action pipeline.
type Job struct {
	Name           string
	OriginalSource string
	TempPrefix     string
	CurrentSource  string
	ID             string // equal to OriginalSource

	mu        sync.Mutex
	nextIndex int
}

// NewJob builds a fresh Job from a JobConfig, with current-source set to
// the original source and no destination allocated yet.
func NewJob(cfg JobConfig) *Job {
	return &Job{
		Name:           cfg.Name,
		OriginalSource: cfg.SourcePath,
		TempPrefix:     cfg.TempPrefix,
		CurrentSource:  cfg.SourcePath,
		ID:             cfg.SourcePath,
	}
}

// NextDestination allocates the next available "<temp-prefix>-<i>[.ext]"
// path for this job, pre-incrementing a per-job counter under the job's own
// mutex so concurrent callers (there should only ever be one at a time,
// since actions run sequentially within a job) never race on the same
// index, and so a taken index 1 cannot loop the search forever.
//
// ext, if non-empty, has any leading dots stripped and is appended as
// ".<ext>".
func (j *Job) NextDestination(ext string) string {
	ext = strings.TrimLeft(ext, ".")

	j.mu.Lock()
	defer j.mu.Unlock()

	for {
		j.nextIndex++
		candidate := fmt.Sprintf("%s-%d", j.TempPrefix, j.nextIndex)
		if ext != "" {
			candidate += "." + ext
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
