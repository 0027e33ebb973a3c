package main

import (
	"fmt"
	"os"

	"github.com/neonux/mozilla-all-sub004/decompiler"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app holds the configuration shared by all commands of one invocation.
type app struct {
	v   *viper.Viper
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "decomp [file]",
		Short: "Decompile bytecode scripts back into source",
		Long: `Decompile bytecode scripts back into source.

Scripts are read from a file, from --code or from stdin. Files ending in
.json or .cbor hold encoded scripts, .toml files hold assembler fixtures,
and anything else is read as assembler text.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runHandler,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is decomp.toml in . or ~/.config/decomp)")
	pf.StringP("code", "c", "", "assembler text to load")
	pf.Bool("stdin", false, "read input from stdin")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("format", "text", "output format (text, json)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.Int("indent", 0, "initial indentation in spaces")
	pf.Bool("pretty", true, "indent and break lines")
	pf.Int("max-depth", decompiler.DefaultMaxDepth, "maximum nesting of rendered constructs")
	pf.Int("max-output", 0, "maximum size of rendered text in bytes (0 for the default)")
	if err := a.v.BindPFlags(pf); err != nil {
		panic(err)
	}
	root.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Print the decompiled source of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runHandler,
	}
	for _, cmd := range []*cobra.Command{root, runCmd} {
		cmd.Flags().String("func", "", "decompile only the named function")
		cmd.Flags().Bool("parens", false, "parenthesize a function expression")
	}

	disCmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble a script",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.disHandler,
	}
	disCmd.Flags().String("func", "", "disassemble only the named function")

	exprCmd := &cobra.Command{
		Use:   "expr [file]",
		Short: "Print the expression that produced an operand stack slot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.exprHandler,
	}
	exprCmd.Flags().Int("pc", 0, "offset of the instruction about to execute")
	exprCmd.Flags().Int("slot", -1, "stack slot relative to the top")
	exprCmd.Flags().String("func", "", "function whose script holds the pc")
	exprCmd.MarkFlagRequired("pc")

	asmCmd := &cobra.Command{
		Use:   "asm [file]",
		Short: "Assemble text into an encoded script",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.asmHandler,
	}
	asmCmd.Flags().StringP("output", "o", "", "output file (.json or .cbor)")
	asmCmd.MarkFlagRequired("output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  a.versionHandler,
	}

	root.AddCommand(runCmd, disCmd, exprCmd, asmCmd, versionCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}
