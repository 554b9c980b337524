// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/sci-bots/droplet-planning-plugin/pkg/cueutil"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

//go:embed recipe_schema.cue
var recipeSchema string

// TemplateVars are the variables the packaging tool substitutes into a recipe
// template before parsing it.
type TemplateVars struct {
	// Tag is the most recent version-control tag (GIT_DESCRIBE_TAG),
	// conventionally prefixed with "v".
	Tag string
	// Distance is the commit distance since Tag (GIT_DESCRIBE_NUMBER).
	Distance int
	// PackageName is the derived package name (PKG_NAME).
	PackageName string
}

// Map returns the variables under the names recipes reference them by.
func (v TemplateVars) Map() map[string]string {
	return map[string]string{
		"GIT_DESCRIBE_TAG":    v.Tag,
		"GIT_DESCRIBE_NUMBER": strconv.Itoa(v.Distance),
		"PKG_NAME":            v.PackageName,
	}
}

// Version returns the version string the template's derivation expression
// produces for these variables.
func (v TemplateVars) Version() string {
	return DeriveVersion(v.Tag, v.Distance)
}

// Load reads the recipe template at path, renders it with vars, and parses
// the result. This is the whole manifest lifecycle up to consumption: the
// document is authored once, rendered once, then read by the build tooling.
func Load(path types.FilesystemPath, vars TemplateVars) (*Recipe, error) {
	if valid, errs := path.IsValid(); !valid {
		return nil, errs[0]
	}

	data, err := os.ReadFile(path.String())
	if err != nil {
		return nil, fmt.Errorf("read recipe at %s: %w", path, err)
	}

	rendered, err := Render(data, vars)
	if err != nil {
		return nil, fmt.Errorf("render recipe at %s: %w", path, err)
	}

	r, err := ParseRendered(rendered, path.String())
	if err != nil {
		return nil, err
	}
	r.FilePath = path
	return r, nil
}

// Render substitutes template variables into a recipe template, producing the
// plain YAML document the packaging tool consumes.
func Render(data []byte, vars TemplateVars) ([]byte, error) {
	out, err := RenderTemplate(string(data), vars.Map())
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// ParseRendered parses an already-rendered recipe document: schema validation
// via CUE, decode into Recipe, then the semantic checks in Validate.
func ParseRendered(data []byte, path string) (*Recipe, error) {
	result, err := cueutil.ParseAndDecodeYAML[Recipe](
		[]byte(recipeSchema),
		data,
		"#Recipe",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	r := result.Value
	if errs := r.Validate(); errs.HasErrors() {
		return nil, errs.Errors()
	}
	return r, nil
}
