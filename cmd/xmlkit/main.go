// Command xmlkit is a small command-line front end over this module's
// parser/DOM/XPath stack, grounded on arturoeanton-go-xml's xml/cli.go
// (CliFormat/CliToJson/CliToCsv/CliQuery dispatching over a hand-rolled
// flag parse and an io.Reader-from-args-or-stdin helper), rebuilt on
// github.com/spf13/cobra in place of that dispatch, and retargeted from
// the OrderedMap/JSON/CSV conversions xml/cli.go offered onto this
// module's own surface: pretty-printing, DTD validation and XPath
// querying. The CLI itself stays thin by design.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/goxmlkit/xmldom"
	"github.com/arturoeanton/goxmlkit/xmlopt"
	"github.com/arturoeanton/goxmlkit/xmlwriter"
	"github.com/arturoeanton/goxmlkit/xpath"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xmlkit:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xmlkit",
		Short:         "Parse, validate and query XML documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(formatCmd(), validateCmd(), queryCmd())
	return root
}

// inputReader is the args-or-stdin helper xml/cli.go's getInputReader
// performed by hand: a bare positional argument names a file, otherwise
// stdin is read (no "looks like a flag" heuristic is needed since cobra
// has already stripped flags out of args by the time commands see them).
func inputReader(args []string) (io.ReadCloser, error) {
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		return io.NopCloser(os.Stdin), nil
	}
	return nil, fmt.Errorf("no input provided (pass a file path or pipe one in)")
}

func formatCmd() *cobra.Command {
	var indent int
	var stripBlanks bool
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Pretty-print an XML document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := inputReader(args)
			if err != nil {
				return err
			}
			defer r.Close()

			var popts []xmlopt.ParseOption
			if stripBlanks {
				popts = append(popts, xmlopt.StripBlanks())
			}
			doc, err := xmldom.Parse(r, popts...)
			if err != nil {
				return err
			}

			wcfg := xmlopt.DefaultWriterConfig()
			wcfg.Indent = indent
			wcfg.XMLDeclaration = true
			return xmlwriter.Write(cmd.OutOrStdout(), doc, wcfg)
		},
	}
	cmd.Flags().IntVar(&indent, "indent", 2, "indent width in spaces")
	cmd.Flags().BoolVar(&stripBlanks, "strip-blanks", false, "discard whitespace-only text nodes")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Parse a document in validating mode against its DOCTYPE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := inputReader(args)
			if err != nil {
				return err
			}
			defer r.Close()

			_, err = xmldom.Parse(r, xmlopt.Validating())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	return cmd
}

func queryCmd() *cobra.Command {
	var namespaces map[string]string
	cmd := &cobra.Command{
		Use:   "query <xpath> [file]",
		Short: "Evaluate an XPath 1.0 expression against a document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expression := args[0]
			r, err := inputReader(args[1:])
			if err != nil {
				return err
			}
			defer r.Close()

			doc, err := xmldom.Parse(r)
			if err != nil {
				return err
			}

			expr, err := xpath.Compile(expression, namespaces)
			if err != nil {
				return err
			}
			ctx := xpath.NewContext(doc.Element())
			ctx.Doc = doc
			value, err := expr.EvalValue(doc.Root, ctx)
			if err != nil {
				return err
			}

			return printValue(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().StringToStringVar(&namespaces, "ns", nil, "prefix=uri namespace bindings, repeatable")
	return cmd
}

func printValue(w io.Writer, v xpath.Value) error {
	nodes, err := v.ToNodeSet()
	if err != nil {
		// Not a node-set (boolean/number/string result): print its string form.
		_, err := fmt.Fprintln(w, v.ToString())
		return err
	}
	wcfg := xmlopt.DefaultWriterConfig()
	for _, n := range nodes {
		if n.IsElement() {
			if err := xmlwriter.WriteNode(w, n, wcfg); err != nil {
				return err
			}
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintln(w, n.Str())
	}
	return nil
}
