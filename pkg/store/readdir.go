package store

import (
	"fmt"
	"html"

	"github.com/hoardlab/hoard/pkg/dispatch"
	"github.com/hoardlab/hoard/pkg/persist"
)

// readDirHandler is the signature of the ReadDir dispatch variants.
type readDirHandler func(a *Asset, ctx *UpdateContext, args map[string]any) (any, error)

// readDirScope dispatches on the presence and shape of the call arguments.
// First match wins: html rendering, plain listing, then the root fallback.
var readDirScope = dispatch.NewNamespace[readDirHandler]("ReadDir").
	Variant(dispatch.Params{
		"path": dispatch.P(dispatch.IsString()),
		"html": dispatch.P(dispatch.Any()),
	}, readDirHTML).
	Variant(dispatch.Params{
		"path": dispatch.P(dispatch.IsString()),
	}, readDirPlain).
	Fallback(readDirRoot)

// ReadDir lists a directory of the store. It is stateless; the directory
// path comes in as an argument, so one instance can serve every directory.
type ReadDir struct {
	BaseAction
}

// Execute dispatches to the variant matching the call arguments.
func (d *ReadDir) Execute(a *Asset, ctx *UpdateContext, args map[string]any) (any, error) {
	handler, err := readDirScope.Select(args)
	if err != nil {
		return nil, err
	}
	return handler(a, ctx, args)
}

// Help documents the dispatch variants.
func (d *ReadDir) Help() map[string]any {
	return MakeHelp(
		"Read the contents of a directory",
		[]any{
			HelpVariant("json -- default output format", nil),
			HelpVariant("html -- html page for display in browser", map[string]string{
				"html": "any (recommended value: 1) -- if present, format output as HTML page",
			}),
		},
		map[string]string{
			"path": "path.in.store:str | optional -- the path of the requested directory, defaults to root",
		},
	)
}

func readDirPlain(_ *Asset, ctx *UpdateContext, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	return ctx.Store.ReadDirectory(ctx, path)
}

func readDirHTML(a *Asset, ctx *UpdateContext, args map[string]any) (any, error) {
	listing, err := readDirPlain(a, ctx, args)
	if err != nil {
		return nil, err
	}
	rendered, err := persist.Marshal(listing)
	if err != nil {
		return nil, err
	}
	ctx.SetValue("mimetype", "text/html")
	page := fmt.Sprintf("<html><body><code>\n%s\n</code></body></html>",
		html.EscapeString(string(rendered)))
	return page, nil
}

// readDirRoot serves calls without a path argument by listing the root.
func readDirRoot(a *Asset, ctx *UpdateContext, args map[string]any) (any, error) {
	rooted := map[string]any{"path": ""}
	if _, wantHTML := args["html"]; wantHTML {
		rooted["html"] = args["html"]
		return readDirHTML(a, ctx, rooted)
	}
	return readDirPlain(a, ctx, rooted)
}
