package config

import (
	"flag"
)

// Flags holds command-line overrides of the configuration.
type Flags struct {
	fs *flag.FlagSet

	config      string
	debug       bool
	logFile     string
	version     int
	compress    bool
	match       bool
	embedNotes  bool
	splitMeshes bool
	scale       float64
	notetrack   bool
}

// RegisterFlags defines the configuration flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logFile, "log", "", "Path to log file")
	fs.IntVar(&f.version, "version", 0, "Model format version (5, 6 or 7)")
	fs.BoolVar(&f.compress, "compress", true, "Compress binary payloads")
	fs.BoolVar(&f.match, "match", false, "Use the match-finding LZ4 compressor")
	fs.BoolVar(&f.embedNotes, "embed-notes", true, "Write notes into the anim instead of a notetrack file")
	fs.BoolVar(&f.splitMeshes, "split", true, "Keep each mesh of a model separate")
	fs.Float64Var(&f.scale, "scale", 1, "Scale applied to positions")
	fs.BoolVar(&f.notetrack, "notetrack", true, "Read notes from a companion notetrack file")
	return f
}

// ConfigPath returns the explicit config path if provided via the -config
// flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// apply applies the flags that were set on the command line to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil || f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			if f.debug {
				cfg.Logging.Level = "debug"
			}
		case "log":
			cfg.Logging.File = f.logFile
		case "version":
			cfg.Export.ModelVersion = f.version
		case "compress":
			cfg.Export.Compress = f.compress
		case "match":
			cfg.Export.MatchFinder = f.match
		case "embed-notes":
			cfg.Export.EmbedNotes = f.embedNotes
		case "split":
			cfg.Import.SplitMeshes = f.splitMeshes
		case "scale":
			cfg.Import.Scale = float32(f.scale)
		case "notetrack":
			cfg.Import.UseNotetrackFile = f.notetrack
		}
	})
}
