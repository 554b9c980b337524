// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sci-bots/droplet-planning-plugin/internal/build"
	"github.com/sci-bots/droplet-planning-plugin/internal/config"
	"github.com/sci-bots/droplet-planning-plugin/internal/gitver"
	"github.com/sci-bots/droplet-planning-plugin/internal/issue"
	"github.com/sci-bots/droplet-planning-plugin/pkg/recipe"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

var (
	// recipeFile allows specifying a recipe path other than the configured one.
	recipeFile string
	// recipeTag overrides the version-control tag (GIT_DESCRIBE_TAG).
	recipeTag string
	// recipeDistance overrides the commit distance (GIT_DESCRIBE_NUMBER).
	recipeDistance int

	recipeCmd = &cobra.Command{
		Use:   "recipe",
		Short: "Inspect and validate the package recipe",
		Long: `Inspect and validate the package recipe.

The recipe is a templated conda manifest (.conda-recipe/meta.yaml). Its
template variables come from version-control state: the latest tag and
the commit distance since it. Use --tag and --distance to render against
explicit values instead of the surrounding repository.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	recipeRenderCmd = &cobra.Command{
		Use:   "render",
		Short: "Print the rendered recipe document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderRecipe(cmd.Context())
		},
	}

	recipeValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the recipe against its schema and invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateRecipe(cmd.Context())
		},
	}

	recipeVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the derived package version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRecipeVersion(cmd.Context())
		},
	}
)

func init() {
	recipeCmd.PersistentFlags().StringVar(&recipeFile, "recipe", "", "recipe file (default is .conda-recipe/meta.yaml)")
	recipeCmd.PersistentFlags().StringVar(&recipeTag, "tag", "", "version-control tag to render against (e.g. v2.5)")
	recipeCmd.PersistentFlags().IntVar(&recipeDistance, "distance", 0, "commit distance since the tag")

	recipeCmd.AddCommand(recipeRenderCmd)
	recipeCmd.AddCommand(recipeValidateCmd)
	recipeCmd.AddCommand(recipeVersionCmd)
}

// resolveRecipePath picks the recipe location: explicit flag, then the
// configured recipe_path, then the conventional .conda-recipe/meta.yaml.
func resolveRecipePath(flagPath string) types.FilesystemPath {
	if flagPath != "" {
		return types.FilesystemPath(flagPath)
	}
	if cfg, err := config.Load(); err == nil && cfg.RecipePath != "" {
		return types.FilesystemPath(cfg.RecipePath)
	}
	return build.DefaultRecipePath("")
}

// pluginName returns the configured package name exported as PKG_NAME.
func pluginName() string {
	if cfg, err := config.Load(); err == nil {
		return cfg.PluginName
	}
	return config.DefaultConfig().PluginName
}

// resolveTemplateVars builds the recipe template variables from the --tag
// and --distance flags, falling back to the environment or the repository
// containing the recipe.
func resolveTemplateVars(ctx context.Context, path types.FilesystemPath) (recipe.TemplateVars, error) {
	if recipeTag != "" {
		return recipe.TemplateVars{
			Tag:         recipeTag,
			Distance:    recipeDistance,
			PackageName: pluginName(),
		}, nil
	}

	describe, err := gitver.Resolve(ctx, filepath.Dir(path.String()))
	if err != nil {
		renderIssue(issue.GitDescribeFailedId)
		return recipe.TemplateVars{}, issue.NewErrorContext().
			WithOperation("resolve version-control state").
			WithResource(filepath.Dir(path.String())).
			WithSuggestion("Run from inside the plugin's repository checkout").
			WithSuggestion("Or set GIT_DESCRIBE_TAG and GIT_DESCRIBE_NUMBER in the environment").
			WithSuggestion("Or pass --tag and --distance explicitly").
			Wrap(err).
			BuildError()
	}

	return recipe.TemplateVars{
		Tag:         describe.Tag,
		Distance:    describe.Distance,
		PackageName: pluginName(),
	}, nil
}

// warnMissingTagPrefix tells the user when the version derivation is about
// to drop a character that isn't the conventional "v".
func warnMissingTagPrefix(tag string) {
	if tag == "" || recipe.HasTagPrefix(tag) {
		return
	}
	fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
		fmt.Sprintf("tag %q has no \"v\" prefix; the derived version drops its first character", tag))
}

func renderRecipe(ctx context.Context) error {
	path := resolveRecipePath(recipeFile)
	vars, err := resolveTemplateVars(ctx, path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path.String())
	if err != nil {
		renderIssue(issue.RecipeNotFoundId)
		return issue.NewErrorContext().
			WithOperation("read recipe").
			WithResource(path.String()).
			WithSuggestion("Check that the recipe file exists").
			WithSuggestion("Use --recipe to point at a non-default location").
			Wrap(err).
			BuildError()
	}

	rendered, err := recipe.Render(data, vars)
	if err != nil {
		renderIssue(issue.TemplateRenderErrorId)
		return err
	}

	fmt.Print(string(rendered))
	return nil
}

func validateRecipe(ctx context.Context) error {
	path := resolveRecipePath(recipeFile)
	vars, err := resolveTemplateVars(ctx, path)
	if err != nil {
		return err
	}
	warnMissingTagPrefix(vars.Tag)

	r, err := recipe.Load(path, vars)
	if err != nil {
		renderIssue(classifyRecipeLoadError(err))
		return issue.NewErrorContext().
			WithOperation("load recipe").
			WithResource(path.String()).
			WithSuggestion("Run 'dpp recipe render' to inspect the rendered document").
			WithSuggestion("Check the recipe against the expected meta.yaml layout").
			Wrap(err).
			BuildError()
	}

	errs := r.Validate()
	for _, w := range errs.Warnings() {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+w.Field+": "+w.Message)
	}

	if errs.HasErrors() {
		for _, e := range errs.Errors() {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+e.Field+": "+e.Message)
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("recipe validation failed")}
	}

	fmt.Printf("%s %s %s is valid\n",
		SuccessStyle.Render("✓"),
		CmdStyle.Render(r.Package.Name.String()),
		r.Package.Version)
	return nil
}

func printRecipeVersion(ctx context.Context) error {
	path := resolveRecipePath(recipeFile)
	vars, err := resolveTemplateVars(ctx, path)
	if err != nil {
		return err
	}
	warnMissingTagPrefix(vars.Tag)

	fmt.Println(vars.Version())
	return nil
}
