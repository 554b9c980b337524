// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sci-bots/droplet-planning-plugin/internal/build"
	"github.com/sci-bots/droplet-planning-plugin/internal/config"
	"github.com/sci-bots/droplet-planning-plugin/internal/runtime"
)

var (
	buildRecipe  string
	buildRuntime string
	buildWorkdir string

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Run the recipe's build script",
		Long: `Run the recipe's build script.

The recipe is rendered against the current version-control state, then
its build script executes with GIT_DESCRIBE_TAG, GIT_DESCRIBE_NUMBER,
and PKG_NAME exported into the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd)
		},
	}
)

func init() {
	buildCmd.Flags().StringVar(&buildRecipe, "recipe", "", "recipe file (default is .conda-recipe/meta.yaml)")
	buildCmd.Flags().StringVar(&buildRuntime, "runtime", "", "execution runtime: native or virtual (default from config)")
	buildCmd.Flags().StringVar(&buildWorkdir, "workdir", "", "working directory for the build script (default is the recipe's directory)")
}

// resolveRuntime maps the --runtime flag (or the configured default) to an
// execution runtime type.
func resolveRuntime(flagValue string) (runtime.Type, error) {
	mode := flagValue
	if mode == "" {
		if cfg, err := config.Load(); err == nil {
			mode = string(cfg.DefaultRuntime)
		}
	}

	switch mode {
	case "", string(config.RuntimeNative):
		return runtime.TypeNative, nil
	case string(config.RuntimeVirtual):
		return runtime.TypeVirtual, nil
	default:
		return "", fmt.Errorf("unknown runtime %q (valid: native, virtual)", mode)
	}
}

func runBuild(cmd *cobra.Command) error {
	rt, err := resolveRuntime(buildRuntime)
	if err != nil {
		return err
	}

	artifact, err := build.New().Build(cmd.Context(), build.Options{
		RecipePath:  resolveRecipePath(buildRecipe),
		PackageName: pluginName(),
		Runtime:     rt,
		WorkDir:     buildWorkdir,
	})
	if err != nil {
		if id, ok := classifyExecutionError(err); ok {
			renderIssue(id)
		}
		var scriptErr *build.ScriptError
		if errors.As(err, &scriptErr) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Build failed: ")+scriptErr.Error())
			return &ExitError{Code: scriptErr.ExitCode, Err: err}
		}
		return err
	}

	fmt.Printf("%s built %s %s (build %d) in %s\n",
		SuccessStyle.Render("✓"),
		CmdStyle.Render(artifact.Name.String()),
		artifact.Version,
		artifact.BuildNumber,
		artifact.Elapsed.Round(time.Millisecond))
	return nil
}
