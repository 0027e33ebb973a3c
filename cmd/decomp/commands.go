package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	decomp "github.com/neonux/mozilla-all-sub004"
	"github.com/neonux/mozilla-all-sub004/bytecode"
	"github.com/neonux/mozilla-all-sub004/dis"
	"github.com/spf13/cobra"
)

func (a *app) runHandler(cmd *cobra.Command, args []string) error {
	script, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	opts := a.decompOptions()

	var text string
	if name, _ := cmd.Flags().GetString("func"); name != "" {
		fn, err := findFunction(script, name)
		if err != nil {
			return err
		}
		parens, _ := cmd.Flags().GetBool("parens")
		text, err = decomp.DecompileFunction(fn, append(opts, decomp.WithParens(parens))...)
		if err != nil {
			return err
		}
	} else {
		text, err = decomp.DecompileScript(script, opts...)
		if err != nil {
			return err
		}
	}
	return a.output(cmd.OutOrStdout(), text, map[string]any{
		"name":   script.Name(),
		"source": text,
	})
}

type disJSON struct {
	Offset   int      `json:"offset"`
	Opcode   string   `json:"opcode"`
	Operands []string `json:"operands,omitempty"`
	Note     string   `json:"note,omitempty"`
	Info     string   `json:"info,omitempty"`
}

func (a *app) disHandler(cmd *cobra.Command, args []string) error {
	script, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	var instructions []dis.Instruction
	if name, _ := cmd.Flags().GetString("func"); name != "" {
		fn, err := findFunction(script, name)
		if err != nil {
			return err
		}
		instructions, err = dis.DisassembleFunction(fn)
		if err != nil {
			return err
		}
	} else {
		instructions, err = dis.Disassemble(script)
		if err != nil {
			return err
		}
	}

	if strings.ToLower(a.v.GetString("format")) == "json" {
		out := make([]disJSON, 0, len(instructions))
		for _, instr := range instructions {
			out = append(out, disJSON{
				Offset:   instr.Offset,
				Opcode:   instr.Name,
				Operands: instr.Operands,
				Note:     instr.Note,
				Info:     instr.Annotation,
			})
		}
		return a.output(cmd.OutOrStdout(), "", out)
	}
	return dis.Print(instructions, cmd.OutOrStdout())
}

func (a *app) exprHandler(cmd *cobra.Command, args []string) error {
	script, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	pc, _ := cmd.Flags().GetInt("pc")
	slot, _ := cmd.Flags().GetInt("slot")

	opts := a.decompOptions()
	if name, _ := cmd.Flags().GetString("func"); name != "" {
		fn, err := findFunction(script, name)
		if err != nil {
			return err
		}
		if fn.Script() == nil {
			return fmt.Errorf("function %q is native", name)
		}
		script = fn.Script()
		opts = append(opts, decomp.WithFunction(fn))
	}

	text, ok := decomp.DecompileValueAt(script, pc, decomp.Slot(slot), opts...)
	if !ok {
		return fmt.Errorf("no expression for slot %d at pc %d", slot, pc)
	}
	return a.output(cmd.OutOrStdout(), text, map[string]any{
		"pc":     pc,
		"slot":   slot,
		"source": text,
	})
}

func (a *app) asmHandler(cmd *cobra.Command, args []string) error {
	script, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("output")

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = bytecode.Marshal(script)
	case ".cbor":
		data, err = bytecode.MarshalCBOR(script)
	default:
		return fmt.Errorf("unsupported output file %q (want .json or .cbor)", path)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	a.log.Info().Str("path", path).Int("bytes", len(data)).Msg("wrote script")
	return nil
}

func (a *app) versionHandler(cmd *cobra.Command, args []string) error {
	text := fmt.Sprintf("decomp %s (commit %s, built %s)", version, commit, date)
	return a.output(cmd.OutOrStdout(), text, map[string]string{
		"version": version,
		"commit":  commit,
		"date":    date,
	})
}
