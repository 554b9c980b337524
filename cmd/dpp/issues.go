// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sci-bots/droplet-planning-plugin/internal/build"
	"github.com/sci-bots/droplet-planning-plugin/internal/gitver"
	"github.com/sci-bots/droplet-planning-plugin/internal/issue"
	"github.com/sci-bots/droplet-planning-plugin/internal/runtime"
	"github.com/sci-bots/droplet-planning-plugin/pkg/recipe"
)

// renderIssue prints the catalog entry for id to stderr so the error that
// follows comes with actionable guidance.
func renderIssue(id issue.Id) {
	rendered, _ := issue.Get(id).Render("dark")
	fmt.Fprint(os.Stderr, rendered)
}

// classifyExecutionError maps a build or test failure to its issue catalog
// entry. The second return is false when no entry applies and the raw error
// is all the help we can offer.
func classifyExecutionError(err error) (issue.Id, bool) {
	var scriptErr *build.ScriptError

	switch {
	case errors.As(err, &scriptErr):
		if scriptErr.Phase == "test" {
			return issue.ImportTestFailedId, true
		}
		return issue.BuildFailedId, true
	case errors.Is(err, runtime.ErrShellNotFound):
		return issue.ShellNotFoundId, true
	case errors.Is(err, runtime.ErrRuntimeNotAvailable):
		return issue.RuntimeNotAvailableId, true
	case errors.Is(err, gitver.ErrMalformedDescribe):
		return issue.GitDescribeFailedId, true
	case errors.Is(err, os.ErrNotExist):
		return issue.RecipeNotFoundId, true
	case errors.Is(err, recipe.ErrUndefinedVariable), errors.Is(err, recipe.ErrTemplateSyntax):
		return issue.TemplateRenderErrorId, true
	default:
		return 0, false
	}
}

// classifyRecipeLoadError maps a recipe load failure to its catalog entry.
// Loading renders the template before parsing, so the failure is a missing
// file, a template error, or a parse problem in the rendered document.
func classifyRecipeLoadError(err error) issue.Id {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return issue.RecipeNotFoundId
	case errors.Is(err, recipe.ErrUndefinedVariable), errors.Is(err, recipe.ErrTemplateSyntax):
		return issue.TemplateRenderErrorId
	default:
		return issue.RecipeParseErrorId
	}
}
