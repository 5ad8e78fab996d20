package results

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/document"
)

const (
	FinalOutputJSON = "final_output.json"
	FinalOutputText = "final_output.txt"
	MetadataFile    = "metadata.json"
)

// ArtifactWriter lays out per-document results under
// <base>/raw/<pipeline>/<run_id>/[<category>/]<document>/.
type ArtifactWriter struct {
	baseDir string
	logger  *slog.Logger
}

func NewArtifactWriter(baseDir string, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactWriter{baseDir: baseDir, logger: logger}
}

// DocumentDir returns the artifact directory for one document of one pipeline run.
// The category keeps same-named documents from different categories apart.
func (w *ArtifactWriter) DocumentDir(pipelineName, runID, category, documentID string) string {
	return filepath.Join(w.baseDir, "raw", pipelineName, runID, category, documentID)
}

// Write stores the final output and metadata.json, returning the directory used.
// Text outputs go to final_output.txt; everything else is encoded as JSON, falling
// back to its printed form when it cannot be encoded.
func (w *ArtifactWriter) Write(rec DocumentRecord, finalOutput any) (string, error) {
	dir := w.DocumentDir(rec.PipelineName, rec.RunID, rec.Category, rec.DocumentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", common.NewAppError("PERSISTENCE", "create artifact dir", fmt.Errorf("%w: %v", common.ErrPersistence, err))
	}

	name, data := encodeOutput(finalOutput, w.logger)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return dir, common.NewAppError("PERSISTENCE", "write final output", fmt.Errorf("%w: %v", common.ErrPersistence, err))
	}

	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return dir, common.WrapError(err, "encode metadata")
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), meta, 0o644); err != nil {
		return dir, common.NewAppError("PERSISTENCE", "write metadata", fmt.Errorf("%w: %v", common.ErrPersistence, err))
	}

	w.logger.Debug("results.artifact_written", "dir", dir, "output_file", name)
	return dir, nil
}

func encodeOutput(v any, logger *slog.Logger) (string, []byte) {
	switch t := v.(type) {
	case string:
		return FinalOutputText, []byte(t)
	case document.PlainText:
		return FinalOutputText, []byte(t)
	case []byte:
		return FinalOutputText, t
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn("results.output_not_json", "type", fmt.Sprintf("%T", v), "error", err)
		return FinalOutputText, []byte(fmt.Sprintf("%v", v))
	}
	return FinalOutputJSON, b
}
