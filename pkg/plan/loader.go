package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Load reads additional patch plans from a plan file. The format is
// determined by the file extension:
// - .hcl for HCL
// - .yaml or .yml for YAML
// Loaded plans are validated but not registered; the caller decides which
// registry they go into.
func Load(ctx context.Context, path string) ([]*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading plan file: %w", err)
	}

	var plans []*Plan
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		plans, err = loadHCL(data, path)
	case ".yaml", ".yml":
		plans, err = loadYAML(data)
	default:
		return nil, errors.Errorf("unsupported plan file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		if p.Marker == "" {
			p.Marker = PatchTag
		}
		if err := Validate(ctx, p); err != nil {
			return nil, errors.Errorf("validating plan file %s: %w", path, err)
		}
	}
	return plans, nil
}

// 🔧 loadHCL parses plans from HCL data
func loadHCL(data []byte, filename string) ([]*Plan, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclRule struct {
		Label   string `hcl:"label,label"`
		Anchor  string `hcl:"anchor"`
		Replace string `hcl:"replace"`
	}
	type hclTarget struct {
		Path      string    `hcl:"path,label"`
		Sentinels []string  `hcl:"sentinels,optional"`
		Rules     []hclRule `hcl:"rule,block"`
	}
	type hclPlan struct {
		Version string      `hcl:"version,label"`
		Marker  string      `hcl:"marker,optional"`
		Files   []hclTarget `hcl:"file,block"`
	}
	type hclRoot struct {
		Plans []hclPlan `hcl:"plan,block"`
	}

	var root hclRoot
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	plans := make([]*Plan, 0, len(root.Plans))
	for _, hp := range root.Plans {
		p := &Plan{Version: hp.Version, Marker: hp.Marker}
		for _, hf := range hp.Files {
			tf := TargetFile{Path: hf.Path, Sentinels: hf.Sentinels}
			for _, hr := range hf.Rules {
				tf.Rules = append(tf.Rules, PatchRule{
					Label:   hr.Label,
					Anchor:  hr.Anchor,
					Replace: hr.Replace,
				})
			}
			p.Files = append(p.Files, tf)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// 🔧 loadYAML parses plans from YAML data
func loadYAML(data []byte) ([]*Plan, error) {
	// Define YAML schema
	type yamlRule struct {
		Label   string `yaml:"label"`
		Anchor  string `yaml:"anchor"`
		Replace string `yaml:"replace"`
	}
	type yamlTarget struct {
		Path      string     `yaml:"path"`
		Sentinels []string   `yaml:"sentinels,omitempty"`
		Rules     []yamlRule `yaml:"rules"`
	}
	type yamlPlan struct {
		Version string       `yaml:"version"`
		Marker  string       `yaml:"marker,omitempty"`
		Files   []yamlTarget `yaml:"files"`
	}
	type yamlRoot struct {
		Plans []yamlPlan `yaml:"plans"`
	}

	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	plans := make([]*Plan, 0, len(root.Plans))
	for _, yp := range root.Plans {
		p := &Plan{Version: yp.Version, Marker: yp.Marker}
		for _, yf := range yp.Files {
			tf := TargetFile{Path: yf.Path, Sentinels: yf.Sentinels}
			for _, yr := range yf.Rules {
				tf.Rules = append(tf.Rules, PatchRule{
					Label:   yr.Label,
					Anchor:  yr.Anchor,
					Replace: yr.Replace,
				})
			}
			p.Files = append(p.Files, tf)
		}
		plans = append(plans, p)
	}
	return plans, nil
}
