package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tildaslashalef/methodgen/internal/dataset"
	"github.com/tildaslashalef/methodgen/internal/loggy"
	"github.com/tildaslashalef/methodgen/internal/workspace"
)

// job is one variant of one sample
type job struct {
	seq        int
	index      int
	meta       dataset.Metadata
	project    string
	methodName string
	variant    dataset.Variant
	sampleDir  string
}

func (j job) inputPath() string {
	return filepath.Join(j.sampleDir, j.variant.InputFile())
}

func (j job) outputPath() string {
	return filepath.Join(j.sampleDir, j.variant.OutputFile())
}

func (j job) target() workspace.Target {
	return workspace.Target{Project: j.project, SourcePath: j.meta.SourcePath}
}

// planJobs enumerates the sample directories and variants into jobs, in
// sample then variant order. It returns the jobs and the number of samples
// they cover; samples without metadata or instances rows are skipped.
func planJobs(resultsDir string, limit int, variants []dataset.Variant, meta map[int]dataset.Metadata, inst *dataset.Instances, logger *loggy.Logger) ([]job, int, error) {
	indexes, err := dataset.ListSamples(resultsDir)
	if err != nil {
		return nil, 0, err
	}

	var jobs []job
	samples := 0
	for _, index := range indexes {
		if limit > 0 && samples >= limit {
			break
		}

		m, ok := meta[index]
		if !ok {
			logger.Warn("Sample has no metadata, skipping", "sample", index)
			continue
		}
		if !inst.Has(index) {
			logger.Warn("Sample has no instances row, skipping", "sample", index)
			continue
		}

		project, err := inst.Project(index)
		if err != nil {
			return nil, 0, err
		}
		methodName, err := inst.MethodName(index)
		if err != nil {
			return nil, 0, err
		}

		dir := dataset.SampleDir(resultsDir, index)
		added := 0
		for _, v := range variants {
			j := job{
				seq:        len(jobs),
				index:      index,
				meta:       m,
				project:    project,
				methodName: methodName,
				variant:    v,
				sampleDir:  dir,
			}

			if _, err := os.Stat(j.inputPath()); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn("Variant input missing, skipping", "sample", index, "file", v.InputFile())
					continue
				}
				return nil, 0, fmt.Errorf("sample %d: %w", index, err)
			}

			jobs = append(jobs, j)
			added++
		}
		if added > 0 {
			samples++
		}
	}

	return jobs, samples, nil
}
