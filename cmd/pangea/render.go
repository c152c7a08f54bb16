package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/pangea"
	"github.com/aretw0/pangea/internal/presentation/graph"
	"github.com/aretw0/pangea/internal/presentation/tui"
	"github.com/aretw0/pangea/pkg/adapters/memory"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/dsl"
	"github.com/aretw0/pangea/pkg/observability"
	"github.com/aretw0/pangea/pkg/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	formatAuto    = "auto"
	formatJSON    = "json"
	formatPretty  = "pretty"
	formatMermaid = "mermaid"
)

var renderCmd = &cobra.Command{
	Use:   "render [document.yaml]",
	Short: "Render a component document as a message",
	Long: `Renders a YAML component document once, the way a message is rendered,
and prints the resulting tree. Function props are registered with an
in-memory host, so their handles appear in the output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		pairs, _ := cmd.Flags().GetStringArray("prop")
		format, _ := cmd.Flags().GetString("format")

		props, err := parseProps(pairs)
		if err != nil {
			return err
		}
		if format == formatAuto {
			format = formatJSON
			if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				format = formatPretty
			}
		}

		return renderDocument(cmd.Context(), cmd.OutOrStdout(), logger, args[0], props, format)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringArrayP("prop", "p", nil, "Prop passed to the component (key=value, repeatable)")
	renderCmd.Flags().StringP("format", "f", formatAuto, "Output format: auto, json, pretty or mermaid")
}

// placeholderHandlers binds every handler a document names to a function
// that only logs, since nothing can call it from the command line.
func placeholderHandlers(doc *dsl.Document, logger *slog.Logger) map[string]any {
	handlers := make(map[string]any, len(doc.Handlers()))
	for _, name := range doc.Handlers() {
		name := name
		handlers[name] = func() { logger.Info("handler invoked", "handler", name) }
	}
	return handlers
}

func renderDocument(ctx context.Context, w io.Writer, logger *slog.Logger, path string, props domain.Props, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := dsl.LoadFile(path)
	if err != nil {
		return err
	}
	component, err := doc.Bind(placeholderHandlers(doc, logger))
	if err != nil {
		return err
	}

	sdk, err := pangea.New(memory.NewHost(),
		pangea.WithLogger(logger),
		pangea.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	if err != nil {
		return err
	}

	var tree *domain.Tree
	if err := sdk.RenderMessage(ctx, component, props, func(t *domain.Tree) { tree = t }); err != nil {
		return err
	}

	switch format {
	case formatJSON:
		encoded, err := render.Encode(tree)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, encoded.Wire)
		return err
	case formatPretty:
		out, err := tui.NewRenderer()(tui.Outline(component.DisplayName(), tree))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	case formatMermaid:
		_, err := fmt.Fprint(w, graph.GenerateMermaid(tree, nil))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
