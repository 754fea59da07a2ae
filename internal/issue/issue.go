// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/skeleton-dev/skeleton/pkg/codegen"
	"github.com/skeleton-dev/skeleton/pkg/cueutil"
	"github.com/skeleton-dev/skeleton/pkg/decl"
	"github.com/skeleton-dev/skeleton/pkg/graph"
	"github.com/skeleton-dev/skeleton/pkg/router"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	DeclarationsNotFoundId
	DeclarationParseErrorId
	DuplicateIdId
	DuplicateRouteId
	UnsatisfiedDependencyId
	AmbiguousDependencyId
	DependencyCycleId
	StructuralErrorId
	ConfigLoadFailedId
	NameCollisionId
	UnknownRouteId
	PermissionDeniedId
	FileExistsId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
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
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	cueLinks = []HttpLink{"https://cuelang.org/docs/"}

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

A path given on the command line does not exist.

## Things you can try:
- Check the spelling of the path
- Run the command from the project root`,
	}

	declarationsNotFoundIssue = &Issue{
		id: DeclarationsNotFoundId,
		mdMsg: `
# No declarations found!

We searched for ` + "`skeleton.cue`" + ` and ` + "`*.skeleton.cue`" + ` files but couldn't find any.

## Search locations:
1. The paths given on the command line
2. ` + "`search_paths`" + ` from your configuration (default: the current directory)

## Things you can try:
- Scaffold a first feature:
~~~
$ skeleton new feature home
~~~
- Check the effective search paths:
~~~
$ skeleton config show
~~~`,
	}

	declarationParseErrorIssue = &Issue{
		id: DeclarationParseErrorId,
		mdMsg: `
# Failed to parse a declaration file!

A declaration file has a syntax error or does not match the declaration schema.

## Common causes:
- Misspelled field names (the schema is closed)
- A ` + "`kind`" + ` other than platform, library, feature or subfeature
- Node ids, routes or capability names with invalid characters

## Example declaration:
~~~cue
declarations: [{
	id:    "search"
	kind:  "feature"
	route: "search"
	start: "search.main"
	requires: [{name: "MovieRepository"}]
}]
~~~`,
		extLinks: cueLinks,
	}

	duplicateIdIssue = &Issue{
		id: DuplicateIdId,
		mdMsg: `
# Duplicate node id!

Two declarations use the same id. Ids must be unique across the whole application.

## Things you can try:
- Rename one of the nodes
- Check that a declaration file is not included twice through overlapping search paths`,
	}

	duplicateRouteIssue = &Issue{
		id: DuplicateRouteId,
		mdMsg: `
# Duplicate route!

Two features or subfeatures claim the same route. Every route must map to exactly one node.

## Things you can try:
- Give one of the nodes a more specific route, e.g. ` + "`movies/detail`" + `
- List the current table with ` + "`skeleton routes`",
	}

	unsatisfiedDependencyIssue = &Issue{
		id: UnsatisfiedDependencyId,
		mdMsg: `
# Unsatisfied dependency!

A node requires a capability that no node in its scope provides.

## Visibility rules:
- Platforms and libraries are visible everywhere
- A subfeature sees its owning feature
- Other features and subfeatures are visible only through ` + "`dependencies`" + `

## Things you can try:
- Add a library that provides the capability
- Add the providing feature to the node's ` + "`dependencies`" + `
- Relax the version constraint of the requirement`,
	}

	ambiguousDependencyIssue = &Issue{
		id: AmbiguousDependencyId,
		mdMsg: `
# Ambiguous dependency!

More than one node in scope provides the required capability, so the provider cannot be chosen.

## Things you can try:
- Remove the capability from all but one provider
- Narrow the requirement with a version constraint that only one provider satisfies`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The nodes listed in the error depend on each other in a loop, so no materialization order exists.

## Things you can try:
- Move the shared capability into a library both sides can depend on
- Remove one of the explicit ` + "`dependencies`" + ` in the cycle`,
	}

	structuralErrorIssue = &Issue{
		id: StructuralErrorId,
		mdMsg: `
# Invalid application structure!

The declarations do not form a valid feature tree.

## Rules:
- Every subfeature names an existing feature as its ` + "`parent`" + `
- Every feature names one of its own subfeatures as its ` + "`start`" + `
- Features and subfeatures have a route; platforms and libraries have none
- Platforms require nothing; libraries depend only on platforms and libraries
- The ` + "`app.start`" + ` node is a feature`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file has a syntax error or an invalid value.

## Things you can try:
- Print the files that are read:
~~~
$ skeleton config path
~~~
- Write a fresh default file:
~~~
$ skeleton config init --force
~~~`,
		extLinks: cueLinks,
	}

	nameCollisionIssue = &Issue{
		id: NameCollisionId,
		mdMsg: `
# Generated name collision!

Two node ids or capability names produce the same Go identifier or file name
(for example ` + "`movie-list`" + ` and ` + "`movie_list`" + `).

## Things you can try:
- Rename one of the colliding nodes or capabilities`,
	}

	unknownRouteIssue = &Issue{
		id: UnknownRouteId,
		mdMsg: `
# Unknown route!

The route is not part of the generated route table.

## Things you can try:
- Regenerate the route table with ` + "`skeleton build`" + `
- Use the generated ` + "`Route...`" + ` constants instead of string literals`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

skeleton could not read or write a file.

## Things you can try:
- Check the permissions of the output directory
- Make sure generated files are not locked by another process`,
	}

	fileExistsIssue = &Issue{
		id: FileExistsId,
		mdMsg: `
# File already exists!

The command would overwrite an existing file.

## Things you can try:
- Pass ` + "`--force`" + ` to overwrite it
- Choose a different name`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():          fileNotFoundIssue,
		declarationsNotFoundIssue.Id():  declarationsNotFoundIssue,
		declarationParseErrorIssue.Id(): declarationParseErrorIssue,
		duplicateIdIssue.Id():           duplicateIdIssue,
		duplicateRouteIssue.Id():        duplicateRouteIssue,
		unsatisfiedDependencyIssue.Id(): unsatisfiedDependencyIssue,
		ambiguousDependencyIssue.Id():   ambiguousDependencyIssue,
		dependencyCycleIssue.Id():       dependencyCycleIssue,
		structuralErrorIssue.Id():       structuralErrorIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		nameCollisionIssue.Id():         nameCollisionIssue,
		unknownRouteIssue.Id():          unknownRouteIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
		fileExistsIssue.Id():            fileExistsIssue,
	}

	// errorIssues maps sentinel errors to the issue explaining them, most
	// specific first.
	errorIssues = []struct {
		err error
		id  Id
	}{
		{graph.ErrDuplicateID, DuplicateIdId},
		{graph.ErrDuplicateRoute, DuplicateRouteId},
		{graph.ErrUnsatisfiedDependency, UnsatisfiedDependencyId},
		{graph.ErrAmbiguousDependency, AmbiguousDependencyId},
		{graph.ErrCycle, DependencyCycleId},
		{graph.ErrStructural, StructuralErrorId},
		{decl.ErrInvalidDeclaration, DeclarationParseErrorId},
		{decl.ErrNoDeclarations, DeclarationsNotFoundId},
		{decl.ErrInvalidKind, DeclarationParseErrorId},
		{decl.ErrInvalidApp, StructuralErrorId},
		{decl.ErrConflictingApp, StructuralErrorId},
		{cueutil.ErrSchema, DeclarationParseErrorId},
		{codegen.ErrNameCollision, NameCollisionId},
		{router.ErrUnknownRoute, UnknownRouteId},
		{fs.ErrPermission, PermissionDeniedId},
		{fs.ErrExist, FileExistsId},
		{fs.ErrNotExist, FileNotFoundId},
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForError returns the issue that explains err, or nil.
func ForError(err error) *Issue {
	var ae *ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return issues[ae.Issue]
	}
	for _, ei := range errorIssues {
		if errors.Is(err, ei.err) {
			return issues[ei.id]
		}
	}
	return nil
}
