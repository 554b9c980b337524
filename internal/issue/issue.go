// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RecipeNotFoundId Id = iota + 1
	RecipeParseErrorId
	TemplateRenderErrorId
	GitDescribeFailedId
	HubUnreachableId
	RouteNotFoundId
	RuntimeNotAvailableId
	ShellNotFoundId
	ConfigLoadFailedId
	BuildFailedId
	ImportTestFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation links
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# No recipe found!

We searched for a recipe but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given via --recipe
2. The recipe_path in your config file
3. .conda-recipe/meta.yaml in the current directory

## Things you can try:
- Run from the plugin checkout root:
~~~
$ cd /path/to/droplet-planning-plugin
$ dpp recipe render
~~~

- Or point at the recipe explicitly:
~~~
$ dpp recipe render --recipe path/to/meta.yaml
~~~`,
	}

	recipeParseErrorIssue = &Issue{
		id: RecipeParseErrorId,
		mdMsg: `
# Failed to parse recipe!

Your recipe contains syntax errors or invalid fields.

## Common issues:
- Invalid YAML after template substitution (bad indentation, stray tabs)
- Missing required sections (package, build, requirements, test)
- A requirements entry that is not "name" or "name <op> <version>"
- Build and run requirement lists that do not mirror each other

## Things you can try:
- Check the error message above for the specific field
- See the full validation report:
~~~
$ dpp recipe validate
~~~

## Example of a valid requirements entry:
~~~yaml
requirements:
  build:
    - microdrop >=2.0
  run:
    - microdrop >=2.0
~~~`,
	}

	templateRenderErrorIssue = &Issue{
		id: TemplateRenderErrorId,
		mdMsg: `
# Failed to render recipe template!

A template expression in the recipe could not be evaluated.

## Supported template syntax:
- Substitution: ` + "`{{ GIT_DESCRIBE_TAG }}`" + `, ` + "`{{ PKG_NAME }}`" + `
- Suffix slice: ` + "`{{ GIT_DESCRIBE_TAG[1:] }}`" + `
- Conditionals: ` + "`{% if GIT_DESCRIBE_NUMBER > '0' %}...{% else %}...{% endif %}`" + `

## Things you can try:
- Check the offset reported above against the recipe text
- Make sure every variable the recipe references is one of
  GIT_DESCRIBE_TAG, GIT_DESCRIBE_NUMBER, PKG_NAME
- Close every ` + "`{% if %}`" + ` with ` + "`{% endif %}`" + ``,
	}

	gitDescribeFailedIssue = &Issue{
		id: GitDescribeFailedId,
		mdMsg: `
# Could not resolve version from git!

The recipe's version derives from the most recent tag and the commit distance
since it, and neither source was available.

## Resolution order:
1. The GIT_DESCRIBE_TAG and GIT_DESCRIBE_NUMBER environment variables
2. ` + "`git describe --tags --long`" + ` in the recipe's repository

## Things you can try:
- Tag the repository:
~~~
$ git tag v0.1
~~~

- Or provide the describe output directly:
~~~
$ GIT_DESCRIBE_TAG=v0.1 GIT_DESCRIBE_NUMBER=0 dpp recipe render
~~~

- Check that the recipe lives inside a git checkout with at least one tag`,
	}

	hubUnreachableIssue = &Issue{
		id: HubUnreachableId,
		mdMsg: `
# Could not reach the hub!

The routing commands talk to the plugin's hub endpoint over WebSocket, and the
connection failed.

## Things you can try:
- Start the plugin endpoint:
~~~
$ dpp plugin serve
~~~

- Check the hub URI in your config matches where the plugin is serving:
~~~cue
hub_uri: "ws://127.0.0.1:9175/hub"
~~~

- Or point the CLI at a config file with the right endpoint:
~~~
$ dpp --config path/to/config.cue routes list
~~~`,
	}

	routeNotFoundIssue = &Issue{
		id: RouteNotFoundId,
		mdMsg: `
# Route not found!

The route index you referenced is not in the current step's route table.

## Things you can try:
- List the routes the table currently holds:
~~~
$ dpp routes list
~~~

- Route indexes are dense from 0 in insertion order; clearing routes by
  electrode removes whole routes, so indexes can have gaps afterwards`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The selected execution runtime is not usable on your system.

## Available runtimes:
- **native**: Uses your system's default shell (bash, sh, powershell, etc.)
- **virtual**: Uses the built-in POSIX shell interpreter

## Things you can try:
- Change the runtime in your config:
~~~cue
default_runtime: "virtual"
~~~

- Or per invocation:
~~~
$ dpp build --runtime virtual
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a suitable shell for the 'native' runtime.

## Shells we look for:
- Linux/macOS: $SHELL, bash, sh
- Windows: pwsh, powershell, cmd

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Use the 'virtual' runtime instead (built-in shell):
~~~cue
default_runtime: "virtual"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the dpp configuration file.

## Configuration file locations:
- Linux: ~/.config/dpp/config.cue
- macOS: ~/Library/Application Support/dpp/config.cue
- Windows: %APPDATA%\dpp\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ dpp config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/dpp/config.cue
~~~

## Example configuration:
~~~cue
hub_uri: "ws://127.0.0.1:9175/hub"
default_runtime: "native"
plugin_name: "microdrop.droplet-planning-plugin"
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build script failed!

The recipe's build script exited non-zero.

## Common causes:
- The plugin package manager is not installed in the build environment
- The build script's command is not in PATH
- Missing build-phase dependencies

## Things you can try:
- Run with verbose mode for more details:
~~~
$ dpp --verbose build
~~~

- Check the build-phase dependency list:
~~~
$ dpp recipe render
~~~

- Test the build script manually in your shell`,
	}

	importTestFailedIssue = &Issue{
		id: ImportTestFailedId,
		mdMsg: `
# Import test failed!

A post-build test command exited non-zero. Test commands run in declaration
order, and the first failure fails the package.

## Things you can try:
- Run with verbose mode for more details:
~~~
$ dpp --verbose test
~~~

- Verify the built package installs into the test environment
- Check that the run-phase dependencies are available`,
	}

	issues = map[Id]*Issue{
		recipeNotFoundIssue.Id():      recipeNotFoundIssue,
		recipeParseErrorIssue.Id():    recipeParseErrorIssue,
		templateRenderErrorIssue.Id(): templateRenderErrorIssue,
		gitDescribeFailedIssue.Id():   gitDescribeFailedIssue,
		hubUnreachableIssue.Id():      hubUnreachableIssue,
		routeNotFoundIssue.Id():       routeNotFoundIssue,
		runtimeNotAvailableIssue.Id(): runtimeNotAvailableIssue,
		shellNotFoundIssue.Id():       shellNotFoundIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		importTestFailedIssue.Id():    importTestFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
