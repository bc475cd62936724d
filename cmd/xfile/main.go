// The xfile command converts and inspects XMODEL and XANIM assets.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pvcod/xfile/internal/config"
	"github.com/pvcod/xfile/internal/logger"
	"github.com/pvcod/xfile/xbin"
	"go.uber.org/zap"
)

const usage = `usage: xfile [FLAGS] COMMAND [ARGS]

Commands:
	convert INPUT OUTPUT
		Reads an asset from INPUT and writes it to OUTPUT. The format of
		each file is selected by its extension: .XMODEL_BIN,
		.XMODEL_EXPORT, .XANIM_BIN or .XANIM_EXPORT. Notes of a text anim
		are read from and written to a companion .NT_EXPORT file when
		configured.

	dump INPUT
		Writes a readable representation of INPUT to stdout. Binary files
		are dumped record by record. Text files are decoded and written
		back in canonical form.

	info INPUT
		Writes a summary of INPUT to stdout.

	config OUTPUT
		Writes the effective configuration to OUTPUT.

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("init logger: %w", err))
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(os.Stdout, cfg, flag.Args()); err != nil {
		logger.Log.Error("failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(stdout io.Writer, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected command")
	}
	cmd, args := args[0], args[1:]
	need := map[string]int{"convert": 2, "dump": 1, "info": 1, "config": 1}
	n, ok := need[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd)
	}
	if len(args) != n {
		return fmt.Errorf("%s: expected %d arguments, got %d", cmd, n, len(args))
	}

	switch cmd {
	case "convert":
		return convert(args[0], args[1], cfg)
	case "dump":
		return dump(stdout, args[0], cfg)
	case "info":
		return info(stdout, args[0], cfg)
	case "config":
		return cfg.SaveTo(args[0])
	}
	return nil
}

func convert(input, output string, cfg *config.Config) error {
	in, out := kindOf(input), kindOf(output)
	switch {
	case in.isModel() && out.isModel():
		model, err := readModel(input, cfg)
		if err != nil {
			return err
		}
		return writeModel(output, model, cfg)
	case in.isAnim() && out.isAnim():
		anim, err := readAnim(input, cfg)
		if err != nil {
			return err
		}
		return writeAnim(output, anim, cfg)
	}
	return fmt.Errorf("cannot convert %s to %s", input, output)
}

func dump(w io.Writer, input string, cfg *config.Config) error {
	switch k := kindOf(input); k {
	case kindModelBin, kindAnimBin:
		return open(input, func(r io.Reader) error {
			mode := xbin.ModeModel
			if k == kindAnimBin {
				mode = xbin.ModeAnim
			}
			warn, err := xbin.Decoder{Mode: mode}.Dump(w, r)
			logger.Warnings(input, warn)
			return err
		})
	case kindModelText:
		model, err := readModel(input, cfg)
		if err != nil {
			return err
		}
		warn, err := cfg.Export.TextEncoder().EncodeModel(w, model)
		logger.Warnings(input, warn)
		return err
	case kindAnimText:
		anim, err := readAnim(input, cfg)
		if err != nil {
			return err
		}
		enc := cfg.Export.TextEncoder()
		enc.EmbedNotes = true
		warn, err := enc.EncodeAnim(w, anim)
		logger.Warnings(input, warn)
		return err
	}
	return fmt.Errorf("%s: unknown format", input)
}

func info(w io.Writer, input string, cfg *config.Config) error {
	k := kindOf(input)
	switch {
	case k.isModel():
		model, err := readModel(input, cfg)
		if err != nil {
			return err
		}
		warn, err := model.Validate()
		logger.Warnings(input, warn)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, model)
		for i, mesh := range model.Meshes {
			fmt.Fprintf(w, "  mesh %d %q: %d verts, %d faces\n", i, mesh.Name, len(mesh.Verts), len(mesh.Faces))
		}
		for i, mtl := range model.Materials {
			fmt.Fprintf(w, "  material %d %q: %s, %d images\n", i, mtl.Name, mtl.Technique, len(mtl.Images))
		}
		return nil
	case k.isAnim():
		anim, err := readAnim(input, cfg)
		if err != nil {
			return err
		}
		if err := anim.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(w, anim)
		for _, n := range anim.Notes {
			fmt.Fprintf(w, "  note %d %q\n", n.Frame, n.Name)
		}
		return nil
	}
	return fmt.Errorf("%s: unknown format", input)
}
