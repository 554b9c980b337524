// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sci-bots/droplet-planning-plugin/internal/gitver"
	"github.com/sci-bots/droplet-planning-plugin/internal/runtime"
	"github.com/sci-bots/droplet-planning-plugin/internal/testutil"
	"github.com/sci-bots/droplet-planning-plugin/pkg/recipe"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

// ErrScriptFailed is the sentinel error wrapped by ScriptError.
var ErrScriptFailed = errors.New("script failed")

type (
	// Options configures one Build or Test invocation.
	Options struct {
		// RecipePath is the recipe template to load.
		RecipePath types.FilesystemPath
		// PackageName is exported to the recipe as PKG_NAME.
		PackageName string
		// Runtime selects the execution runtime; defaults to native.
		Runtime runtime.Type
		// WorkDir is where scripts run; defaults to the recipe's directory.
		WorkDir string
		// Vars overrides version-control describe resolution. When nil, the
		// tag and commit distance come from the environment or the repository
		// containing the recipe.
		Vars *recipe.TemplateVars
		// Stdout and Stderr receive script output; default to the process's.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Artifact describes the package a successful build produced.
	Artifact struct {
		Name        recipe.PackageName
		Version     string
		BuildNumber int
		Elapsed     time.Duration
	}

	// TestReport summarizes a test command run.
	TestReport struct {
		// Ran is how many commands executed, including a failing one.
		Ran int
		// Total is how many commands the recipe declares.
		Total int
	}

	// ScriptError is returned when a build script or test command exits
	// non-zero.
	ScriptError struct {
		Phase    string
		Command  string
		ExitCode types.ExitCode
	}

	// Builder runs recipe build scripts and test commands.
	Builder struct {
		registry *runtime.Registry
		clock    testutil.Clock
		log      *log.Logger
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s command %q failed with exit code %d", e.Phase, e.Command, e.ExitCode)
}

// Unwrap returns ErrScriptFailed for errors.Is() compatibility.
func (e *ScriptError) Unwrap() error { return ErrScriptFailed }

// WithRegistry overrides the runtime registry.
func WithRegistry(registry *runtime.Registry) Option {
	return func(b *Builder) { b.registry = registry }
}

// WithClock overrides the builder's time source.
func WithClock(clock testutil.Clock) Option {
	return func(b *Builder) { b.clock = clock }
}

// WithLogger overrides the builder's logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) { b.log = logger }
}

// New creates a Builder with the default runtime registry.
func New(opts ...Option) *Builder {
	b := &Builder{
		registry: runtime.NewRegistry(),
		clock:    testutil.RealClock{},
		log:      log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the recipe and runs its build script, returning the artifact
// metadata on success.
func (b *Builder) Build(ctx context.Context, opts Options) (*Artifact, error) {
	r, vars, err := b.load(ctx, opts)
	if err != nil {
		return nil, err
	}

	b.log.Info("building package",
		"name", r.Package.Name,
		"version", r.Package.Version,
		"number", r.Build.Number)

	start := b.clock.Now()
	if err := b.runScript(ctx, "build", r.Build.Script, r, vars, opts); err != nil {
		return nil, err
	}

	return &Artifact{
		Name:        r.Package.Name,
		Version:     r.Package.Version,
		BuildNumber: r.Build.Number,
		Elapsed:     b.clock.Since(start),
	}, nil
}

// Test loads the recipe and runs its test commands in declaration order,
// stopping at the first non-zero exit.
func (b *Builder) Test(ctx context.Context, opts Options) (*TestReport, error) {
	r, vars, err := b.load(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &TestReport{Total: len(r.Test.Commands)}
	for _, command := range r.Test.Commands {
		b.log.Info("running test command", "command", command)
		report.Ran++
		if err := b.runScript(ctx, "test", command, r, vars, opts); err != nil {
			return report, err
		}
	}

	b.log.Info("tests passed", "commands", report.Ran)
	return report, nil
}

// load renders and parses the recipe, resolving template variables from
// version control when the caller did not supply them.
func (b *Builder) load(ctx context.Context, opts Options) (*recipe.Recipe, recipe.TemplateVars, error) {
	vars, err := b.resolveVars(ctx, opts)
	if err != nil {
		return nil, recipe.TemplateVars{}, err
	}

	r, err := recipe.Load(opts.RecipePath, vars)
	if err != nil {
		return nil, recipe.TemplateVars{}, err
	}
	return r, vars, nil
}

func (b *Builder) resolveVars(ctx context.Context, opts Options) (recipe.TemplateVars, error) {
	if opts.Vars != nil {
		return *opts.Vars, nil
	}

	describe, err := gitver.Resolve(ctx, filepath.Dir(opts.RecipePath.String()))
	if err != nil {
		return recipe.TemplateVars{}, fmt.Errorf("resolve version from repository: %w", err)
	}

	return recipe.TemplateVars{
		Tag:         describe.Tag,
		Distance:    describe.Distance,
		PackageName: opts.PackageName,
	}, nil
}

// runScript executes one script through the selected runtime with the
// template variables exported into its environment.
func (b *Builder) runScript(ctx context.Context, phase, script string, r *recipe.Recipe, vars recipe.TemplateVars, opts Options) error {
	ec := runtime.NewExecutionContext(script)
	ec.Context = ctx
	ec.WorkDir = opts.WorkDir
	if ec.WorkDir == "" {
		ec.WorkDir = filepath.Dir(r.FilePath.String())
	}
	if opts.Stdout != nil {
		ec.Stdout = opts.Stdout
	}
	if opts.Stderr != nil {
		ec.Stderr = opts.Stderr
	}
	ec.Stdin = nil
	for k, v := range vars.Map() {
		ec.Env[k] = v
	}

	typ := opts.Runtime
	if typ == "" {
		typ = runtime.TypeNative
	}

	result := b.registry.Execute(typ, ec)
	if result.Error != nil {
		return fmt.Errorf("%s script: %w", phase, result.Error)
	}
	if !result.ExitCode.IsSuccess() {
		return &ScriptError{Phase: phase, Command: script, ExitCode: result.ExitCode}
	}
	return nil
}

// DefaultRecipePath returns the conventional recipe location under dir.
func DefaultRecipePath(dir string) types.FilesystemPath {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return types.FilesystemPath(filepath.Join(dir, ".conda-recipe", "meta.yaml"))
}
