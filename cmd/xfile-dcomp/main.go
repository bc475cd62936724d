// The xfile-dcomp command rewrites an XMODEL_BIN or XANIM_BIN file with an
// uncompressed payload.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pvcod/xfile/internal/logger"
	"github.com/pvcod/xfile/xbin"
	"go.uber.org/zap"
)

const usage = `usage: xfile-dcomp [INPUT] [OUTPUT]

Reads a binary XMODEL_BIN or XANIM_BIN file from INPUT, and writes to OUTPUT
the same file, but with an uncompressed payload.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer logger.Sync()

	args := flag.Args()
	name := "stdin"
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			logger.Log.Error("open input", zap.Error(err))
			return
		}
		input = in
		name = args[0]
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			logger.Log.Error("create output", zap.Error(err))
			return
		}
		defer out.Close()
		defer func() {
			if err := out.Sync(); err != nil {
				logger.Log.Error("sync output", zap.Error(err))
			}
		}()
		output = out
	}

	warn, err := xbin.Decoder{}.Decompress(output, input)
	logger.Warnings(name, warn)
	if err != nil {
		logger.Log.Error("decompress", zap.String("file", name), zap.Error(err))
	}
}
