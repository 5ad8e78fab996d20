package evaluation

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/doceval/internal/core/pipeline"
)

// SelectPipelines returns the pipeline definition files to run. With no names every
// definition in dir is returned; otherwise each name is looked up as <dir>/<name>.yaml
// (or .yml) and names without a file are skipped with a warning.
func SelectPipelines(dir string, names []string, logger *slog.Logger) ([]string, error) {
	if len(names) == 0 {
		return pipeline.ListDefinitionFiles(dir)
	}

	var files []string
	for _, name := range names {
		path, ok := findDefinition(dir, name)
		if !ok {
			logger.Warn("pipeline.config_not_found", "pipeline", name, "dir", dir)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

func findDefinition(dir, name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, true
		}
	}
	return "", false
}
