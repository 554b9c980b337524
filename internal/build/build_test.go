// SPDX-License-Identifier: MPL-2.0

package build

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sci-bots/droplet-planning-plugin/internal/runtime"
	"github.com/sci-bots/droplet-planning-plugin/internal/testutil"
	"github.com/sci-bots/droplet-planning-plugin/pkg/recipe"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

const testRecipe = `package:
  name: {{ PKG_NAME }}
  version: {% if GIT_DESCRIBE_NUMBER > '0' %}{{ GIT_DESCRIBE_TAG[1:] }}.post{{ GIT_DESCRIBE_NUMBER }}{% else %}{{ GIT_DESCRIBE_TAG[1:] }}{% endif %}

build:
  number: 0
  script: BUILD_SCRIPT

requirements:
  build:
    - microdrop >=2.0
  run:
    - microdrop >=2.0

test:
  commands:
TEST_COMMANDS
`

// writeRecipe writes a recipe template with the given build script and test
// commands into a fresh temp dir and returns its path.
func writeRecipe(t *testing.T, script string, testCommands ...string) types.FilesystemPath {
	t.Helper()

	var cmds strings.Builder
	for _, c := range testCommands {
		cmds.WriteString("    - ")
		cmds.WriteString(c)
		cmds.WriteString("\n")
	}

	doc := strings.ReplaceAll(testRecipe, "BUILD_SCRIPT", script)
	doc = strings.ReplaceAll(doc, "TEST_COMMANDS", strings.TrimRight(cmds.String(), "\n"))
	if len(testCommands) == 0 {
		doc = strings.ReplaceAll(doc, "test:\n  commands:\n", "test:\n  commands: []\n")
	}

	path := testutil.WriteFile(t, t.TempDir(), "meta.yaml", doc)
	return types.FilesystemPath(path)
}

func newTestBuilder() *Builder {
	return New(WithLogger(log.New(io.Discard)))
}

func testOptions(path types.FilesystemPath) Options {
	return Options{
		RecipePath:  path,
		PackageName: "microdrop.droplet-planning-plugin",
		Runtime:     runtime.TypeVirtual,
		Vars: &recipe.TemplateVars{
			Tag:         "v2.5",
			Distance:    4,
			PackageName: "microdrop.droplet-planning-plugin",
		},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	path := writeRecipe(t, "echo building $PKG_NAME $GIT_DESCRIBE_TAG $GIT_DESCRIBE_NUMBER")
	opts := testOptions(path)

	var stdout bytes.Buffer
	opts.Stdout = &stdout

	artifact, err := newTestBuilder().Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if artifact.Name != "microdrop.droplet-planning-plugin" {
		t.Errorf("artifact name = %q", artifact.Name)
	}
	if artifact.Version != "2.5.post4" {
		t.Errorf("artifact version = %q, want 2.5.post4", artifact.Version)
	}
	if artifact.BuildNumber != 0 {
		t.Errorf("artifact build number = %d, want 0", artifact.BuildNumber)
	}

	want := "building microdrop.droplet-planning-plugin v2.5 4\n"
	if stdout.String() != want {
		t.Errorf("build output = %q, want %q", stdout.String(), want)
	}
}

func TestBuildScriptFailure(t *testing.T) {
	t.Parallel()

	path := writeRecipe(t, "exit 7")

	_, err := newTestBuilder().Build(context.Background(), testOptions(path))
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Build() error = %v, want ErrScriptFailed", err)
	}

	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("Build() error = %T, want *ScriptError", err)
	}
	if scriptErr.Phase != "build" || scriptErr.ExitCode != 7 {
		t.Errorf("ScriptError = %+v, want build phase, exit 7", scriptErr)
	}
}

func TestTestCommands(t *testing.T) {
	t.Parallel()

	path := writeRecipe(t, "echo noop", "echo one", "echo two")

	report, err := newTestBuilder().Test(context.Background(), testOptions(path))
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if report.Ran != 2 || report.Total != 2 {
		t.Errorf("report = %+v, want 2/2", report)
	}
}

func TestTestStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeRecipe(t, "echo noop", "echo one", "exit 1", "touch "+dir+"/never")

	report, err := newTestBuilder().Test(context.Background(), testOptions(path))
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Test() error = %v, want ErrScriptFailed", err)
	}
	if report.Ran != 2 || report.Total != 3 {
		t.Errorf("report = %+v, want ran 2 of 3", report)
	}
}

func TestBuildDerivedVarsFromEnv(t *testing.T) {
	// Uses t.Setenv, so no t.Parallel().
	t.Setenv("GIT_DESCRIBE_TAG", "v1.0")
	t.Setenv("GIT_DESCRIBE_NUMBER", "0")

	path := writeRecipe(t, "echo ok")
	opts := testOptions(path)
	opts.Vars = nil

	artifact, err := newTestBuilder().Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if artifact.Version != "1.0" {
		t.Errorf("artifact version = %q, want 1.0 (no post suffix at distance 0)", artifact.Version)
	}
}

func TestDefaultRecipePath(t *testing.T) {
	t.Parallel()

	got := DefaultRecipePath("/work/plugin").String()
	if got != "/work/plugin/.conda-recipe/meta.yaml" {
		t.Errorf("DefaultRecipePath() = %q", got)
	}
}
