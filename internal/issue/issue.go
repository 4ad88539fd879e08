// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	IncludePathUnreadableId Id = iota + 1
	ShaderReadFailedId
	UnsupportedShaderId
	InvalidDefinitionId
	InvalidFormatId
	ImportNotFoundId
	CircularDependencyId
	CompositionFailedId
	ValidationFailedId
	OutputWriteFailedId
	ConfigLoadFailedId
)

// ErrUnknownIssue is returned by ParseId for names not in the catalog.
var ErrUnknownIssue = errors.New("unknown issue")

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // slug accepted by `nagaoil explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
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
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

// String returns the catalog slug for id, or "issue(N)" when unknown.
func (id Id) String() string {
	if i, ok := issues[id]; ok {
		return i.name
	}
	return fmt.Sprintf("issue(%d)", int(id))
}

// IsValid reports whether id names a catalog entry.
func (id Id) IsValid() bool {
	_, ok := issues[id]
	return ok
}

var (
	render = glamour.Render

	includePathUnreadableIssue = &Issue{
		id:   IncludePathUnreadableId,
		name: "include-path-unreadable",
		mdMsg: `
# An include path could not be read

Every path given with ` + "`--include`" + ` (or listed in ` + "`NAGA_OIL_INCLUDE_PATH`" + `) must exist.
Directories are searched recursively for ` + "`.wgsl`, `.vert` and `.frag`" + ` files.

## Things you can try:
- Check the spelling of each path. Several paths can be joined with ` + "`;`" + `:
~~~
$ nagaoil main.wgsl --include "shaders;vendor/shaders"
~~~
- Check the directory and file permissions
- Run ` + "`nagaoil modules`" + ` to list what is found on the include paths`,
	}

	shaderReadFailedIssue = &Issue{
		id:   ShaderReadFailedId,
		name: "shader-read-failed",
		mdMsg: `
# The top-level shader could not be read

The positional argument must point at a readable shader file.

## Things you can try:
- Check that the file exists relative to the current directory
- Check the file permissions`,
	}

	unsupportedShaderIssue = &Issue{
		id:   UnsupportedShaderId,
		name: "unsupported-shader",
		mdMsg: `
# Unsupported shader type

The shader type is chosen from the file extension:

| Extension | Shader type        |
|-----------|--------------------|
| .wgsl     | WGSL               |
| .vert     | GLSL vertex        |
| .frag     | GLSL fragment      |

Any other extension is rejected before composition starts.

## Things you can try:
- Rename the file to use one of the extensions above`,
	}

	invalidDefinitionIssue = &Issue{
		id:   InvalidDefinitionId,
		name: "invalid-definition",
		mdMsg: `
# A shader definition could not be parsed

Definitions are passed with ` + "`--defs`" + ` and ` + "`--additional-defs`" + `:

| Form        | Value              |
|-------------|--------------------|
| ` + "`NAME`" + `      | boolean true       |
| ` + "`NAME=true`" + ` | boolean            |
| ` + "`NAME=-3`" + `   | signed integer     |
| ` + "`NAME=3u`" + `   | unsigned integer   |

## Things you can try:
- Make sure unsigned values end with a single ` + "`u`" + `
- Make sure the name before ` + "`=`" + ` is not empty`,
	}

	invalidFormatIssue = &Issue{
		id:   InvalidFormatId,
		name: "invalid-format",
		mdMsg: `
# Unknown output format

` + "`--format`" + ` accepts ` + "`wgsl`, `glsl`, `spv` and `naga`" + `.
When it is omitted the format follows the ` + "`--output`" + ` extension, falling back to WGSL.

## Things you can try:
~~~
$ nagaoil main.wgsl --format spv --output main.spv
~~~`,
	}

	importNotFoundIssue = &Issue{
		id:   ImportNotFoundId,
		name: "import-not-found",
		mdMsg: `
# An imported module was not found

A module is known by its ` + "`#define_import_path`" + ` name. A file without one is known by its
path relative to the include root, in double quotes:

~~~wgsl
#import my_lib::math
#import "util.wgsl"
~~~

## Things you can try:
- Add the directory holding the module with ` + "`--include`" + `
- Run ` + "`nagaoil modules`" + ` to see the registered names
- Run ` + "`nagaoil modules --check`" + ` to list every unresolved import`,
	}

	circularDependencyIssue = &Issue{
		id:   CircularDependencyId,
		name: "circular-dependency",
		mdMsg: `
# Circular module imports

The listed modules import each other, directly or through other modules, so none of them
can be added first.

## Things you can try:
- Move the shared items into a new module that both import
- Run ` + "`nagaoil graph <shader>`" + ` to inspect the import graph`,
	}

	compositionFailedIssue = &Issue{
		id:   CompositionFailedId,
		name: "composition-failed",
		mdMsg: `
# The shader could not be composed

The composer rejected the shader or one of its imports: a parse error, an unknown
directive, a missing ` + "`#endif`" + ` or a duplicate definition. The diagnostic points at
the source line.

## Things you can try:
- Check the reported line
- Pass ` + "`--defs`" + ` for every ` + "`#ifdef`" + ` the shader expects
- Try ` + "`--no-validation`" + ` to skip the duplicate-definition check`,
	}

	validationFailedIssue = &Issue{
		id:   ValidationFailedId,
		name: "validation-failed",
		mdMsg: `
# The composed module failed validation

The module composed, but the validator found problems (type mismatches, missing entry
points, invalid bindings).

## Things you can try:
- Write the composed WGSL to inspect it:
~~~
$ nagaoil main.wgsl --format wgsl --no-validation
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id:   OutputWriteFailedId,
		name: "output-write-failed",
		mdMsg: `
# The output could not be written

## Things you can try:
- Check that the directory of ` + "`--output`" + ` exists
- Check the write permissions
- Omit ` + "`--output`" + ` to write to standard output`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration

The configuration file is written in CUE and validated against a schema.

## Things you can try:
- Run ` + "`nagaoil config path`" + ` to see which file is read
- Run ` + "`nagaoil config init`" + ` to write a fresh default file
- Run ` + "`nagaoil config show`" + ` to see the effective settings

## Example:
~~~cue
include: ["shaders"]
defs: ["SHADOWS", "LIGHTS=4u"]
format: "spv"
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		includePathUnreadableIssue.Id(): includePathUnreadableIssue,
		shaderReadFailedIssue.Id():      shaderReadFailedIssue,
		unsupportedShaderIssue.Id():     unsupportedShaderIssue,
		invalidDefinitionIssue.Id():     invalidDefinitionIssue,
		invalidFormatIssue.Id():         invalidFormatIssue,
		importNotFoundIssue.Id():        importNotFoundIssue,
		circularDependencyIssue.Id():    circularDependencyIssue,
		compositionFailedIssue.Id():     compositionFailedIssue,
		validationFailedIssue.Id():      validationFailedIssue,
		outputWriteFailedIssue.Id():     outputWriteFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// ParseId looks an issue up by its slug.
func ParseId(name string) (Id, error) {
	for id, i := range issues {
		if i.name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIssue, name)
}
