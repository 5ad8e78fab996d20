package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/validate"
)

// BuildGroundTruthSchema returns the JSON schema every ground-truth file must satisfy.
func BuildGroundTruthSchema() map[string]any {
	page := map[string]any{"type": []string{"integer", "null"}, "minimum": 0}
	unit := map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"unit_id":           map[string]any{"type": []string{"string", "integer", "null"}},
			"text":              map[string]any{"type": "string"},
			"source_page_start": page,
			"source_page_end":   page,
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id":   map[string]any{"type": "string"},
			"text":          map[string]any{"type": []string{"string", "null"}},
			"content_units": map[string]any{"type": "array", "items": unit},
		},
	}
}

var groundTruthSchema = validate.MustCompile("ground_truth.json", BuildGroundTruthSchema())

// GroundTruthLoader reads per-document ground-truth records keyed by document stem.
type GroundTruthLoader struct {
	baseDir string
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

func NewGroundTruthLoader(baseDir string, logger *slog.Logger) *GroundTruthLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroundTruthLoader{baseDir: baseDir, schema: groundTruthSchema, logger: logger}
}

// PathFor returns the ground-truth file path for a document: <baseDir>/<stem>.json.
func (l *GroundTruthLoader) PathFor(docPath string) string {
	base := filepath.Base(docPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(l.baseDir, stem+".json")
}

// Load reads and validates the ground truth for docPath.
// A missing file or an empty record yields an error matching common.ErrGroundTruthMissing;
// unreadable or schema-violating files match common.ErrGroundTruthInvalid.
func (l *GroundTruthLoader) Load(docPath string) (GroundTruth, error) {
	path := l.PathFor(docPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("no ground truth file", "document", filepath.Base(docPath), "path", path)
			return GroundTruth{}, fmt.Errorf("%s: %w", path, common.ErrGroundTruthMissing)
		}
		return GroundTruth{}, fmt.Errorf("read %s: %w: %v", path, common.ErrGroundTruthInvalid, err)
	}

	gt, err := l.Parse(data)
	if err != nil {
		l.logger.Error("ground truth rejected", "path", path, "error", err)
		return GroundTruth{}, fmt.Errorf("%s: %w", path, err)
	}
	if gt.IsEmpty() {
		return GroundTruth{}, fmt.Errorf("%s: empty record: %w", path, common.ErrGroundTruthMissing)
	}
	l.logger.Debug("ground truth loaded", "path", path, "content_units", len(gt.ContentUnits))
	return gt, nil
}

// Parse validates raw JSON and decodes it, deriving text from content units.
func (l *GroundTruthLoader) Parse(data []byte) (GroundTruth, error) {
	if err := validate.JSON(l.schema, data); err != nil {
		return GroundTruth{}, fmt.Errorf("%w: %v", common.ErrGroundTruthInvalid, err)
	}
	var gt GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return GroundTruth{}, fmt.Errorf("%w: decode: %v", common.ErrGroundTruthInvalid, err)
	}
	l.syncText(&gt)
	return gt, nil
}

// syncText keeps text equal to the newline-joined unit texts whenever units are present.
func (l *GroundTruthLoader) syncText(gt *GroundTruth) {
	if gt.ContentUnits == nil {
		return
	}
	derived := JoinUnitTexts(gt.ContentUnits)
	if gt.Text != nil && *gt.Text != derived {
		l.logger.Warn("ground truth text differs from content units; using units", "document_id", gt.DocumentID)
	}
	gt.Text = &derived
}
