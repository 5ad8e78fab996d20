// Package pipeline parses pipeline definitions and executes their stages in order.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
)

// StageSpec binds one stage to a registered tool and its configuration.
type StageSpec struct {
	Name    string
	Tool    string
	Params  tool.Params
	Timeout time.Duration
}

// Definition is an ordered, immutable list of stages.
type Definition struct {
	PipelineName string
	Description  string
	CacheTools   bool
	StageTimeout time.Duration
	Stages       []StageSpec
	Source       string
}

type rawStage struct {
	Name    string         `yaml:"name"`
	Tool    string         `yaml:"tool"`
	Params  map[string]any `yaml:"params"`
	Timeout string         `yaml:"timeout"`
}

type rawDefinition struct {
	PipelineName string     `yaml:"pipeline_name"`
	Description  string     `yaml:"description"`
	CacheTools   bool       `yaml:"cache_tools"`
	StageTimeout string     `yaml:"stage_timeout"`
	Stages       []rawStage `yaml:"stages"`
}

// ParseDefinitionYAML decodes a pipeline definition. source names the input in errors.
func ParseDefinitionYAML(data []byte, source string) (Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, common.NewConfigurationError(source, "pipeline definition is empty", nil)
	}

	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, common.NewConfigurationError(source, "malformed pipeline definition", err)
	}

	def := Definition{
		PipelineName: strings.TrimSpace(raw.PipelineName),
		Description:  raw.Description,
		CacheTools:   raw.CacheTools,
		Source:       source,
	}

	var err error
	if def.StageTimeout, err = parseTimeout(raw.StageTimeout); err != nil {
		return Definition{}, common.NewConfigurationError(source, "invalid stage_timeout", err)
	}

	for i, rs := range raw.Stages {
		timeout, err := parseTimeout(rs.Timeout)
		if err != nil {
			return Definition{}, common.NewConfigurationError(source, fmt.Sprintf("invalid timeout for stage %d", i+1), err)
		}
		def.Stages = append(def.Stages, StageSpec{
			Name:    strings.TrimSpace(rs.Name),
			Tool:    strings.TrimSpace(rs.Tool),
			Params:  tool.Params(rs.Params),
			Timeout: timeout,
		})
	}

	def = def.Normalized()
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDefinitionFile reads and parses one pipeline definition file.
func LoadDefinitionFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, common.NewConfigurationError(path, "read pipeline definition", err)
	}
	return ParseDefinitionYAML(data, path)
}

// ListDefinitionFiles returns every *.yaml / *.yml file directly under dir, sorted.
func ListDefinitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.NewConfigurationError(dir, "read pipeline configs dir", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !constants.IsPipelineExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Normalized returns a copy with default stage names filled in.
func (d Definition) Normalized() Definition {
	out := d
	out.Stages = make([]StageSpec, len(d.Stages))
	for i, s := range d.Stages {
		if s.Name == "" {
			s.Name = fmt.Sprintf("stage_%d", i+1)
		}
		if s.Params == nil {
			s.Params = tool.Params{}
		}
		out.Stages[i] = s
	}
	return out
}

// Validate checks the required top-level fields.
func (d Definition) Validate() error {
	var problems []error
	if d.PipelineName == "" {
		problems = append(problems, errors.New("pipeline_name is required"))
	}
	if len(d.Stages) == 0 {
		problems = append(problems, errors.New("stages must be a non-empty list"))
	}
	if d.StageTimeout < 0 {
		problems = append(problems, errors.New("stage_timeout must not be negative"))
	}
	for _, s := range d.Stages {
		if s.Timeout < 0 {
			problems = append(problems, fmt.Errorf("stage %s: timeout must not be negative", s.Name))
		}
	}
	if len(problems) > 0 {
		return common.NewConfigurationError(d.Source, "invalid pipeline definition", errors.Join(problems...))
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
