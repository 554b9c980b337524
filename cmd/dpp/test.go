// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sci-bots/droplet-planning-plugin/internal/build"
)

var (
	testRecipe  string
	testRuntime string
	testWorkdir string

	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Run the recipe's test commands",
		Long: `Run the recipe's test commands in declaration order.

Execution stops at the first command that exits non-zero; that exit
code becomes dpp's exit code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd)
		},
	}
)

func init() {
	testCmd.Flags().StringVar(&testRecipe, "recipe", "", "recipe file (default is .conda-recipe/meta.yaml)")
	testCmd.Flags().StringVar(&testRuntime, "runtime", "", "execution runtime: native or virtual (default from config)")
	testCmd.Flags().StringVar(&testWorkdir, "workdir", "", "working directory for test commands (default is the recipe's directory)")
}

func runTest(cmd *cobra.Command) error {
	rt, err := resolveRuntime(testRuntime)
	if err != nil {
		return err
	}

	report, err := build.New().Test(cmd.Context(), build.Options{
		RecipePath:  resolveRecipePath(testRecipe),
		PackageName: pluginName(),
		Runtime:     rt,
		WorkDir:     testWorkdir,
	})
	if err != nil {
		if id, ok := classifyExecutionError(err); ok {
			renderIssue(id)
		}
		var scriptErr *build.ScriptError
		if errors.As(err, &scriptErr) {
			if report != nil {
				fmt.Fprintf(os.Stderr, "%s%d of %d test commands ran\n",
					ErrorStyle.Render("Tests failed: "), report.Ran, report.Total)
			}
			return &ExitError{Code: scriptErr.ExitCode, Err: err}
		}
		return err
	}

	fmt.Printf("%s %d test commands passed\n", SuccessStyle.Render("✓"), report.Ran)
	return nil
}
