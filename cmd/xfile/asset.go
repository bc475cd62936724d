package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/internal/config"
	"github.com/pvcod/xfile/internal/logger"
	"github.com/pvcod/xfile/xbin"
	"github.com/pvcod/xfile/xexport"
	"go.uber.org/zap"
)

// kind is the type of asset stored in a file, determined by its extension.
type kind int

const (
	kindUnknown kind = iota
	kindModelBin
	kindModelText
	kindAnimBin
	kindAnimText
)

func kindOf(path string) kind {
	switch strings.ToUpper(filepath.Ext(path)) {
	case ".XMODEL_BIN":
		return kindModelBin
	case ".XMODEL_EXPORT":
		return kindModelText
	case ".XANIM_BIN":
		return kindAnimBin
	case ".XANIM_EXPORT":
		return kindAnimText
	}
	return kindUnknown
}

func (k kind) isModel() bool { return k == kindModelBin || k == kindModelText }
func (k kind) isAnim() bool  { return k == kindAnimBin || k == kindAnimText }

// notetrackPath returns the path of the notetrack companion of an anim.
func notetrackPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".NT_EXPORT"
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func open(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return fn(f)
}

func create(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return fn(f)
}

func readModel(path string, cfg *config.Config) (model *xfile.Model, err error) {
	err = open(path, func(r io.Reader) error {
		var warn error
		switch kindOf(path) {
		case kindModelBin:
			model, warn, err = xbin.Decoder{}.DecodeModel(r)
		case kindModelText:
			model, warn, err = xexport.Decoder{Name: baseName(path)}.DecodeModel(r)
		default:
			return fmt.Errorf("%s: not a model", path)
		}
		logger.Warnings(path, warn)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !cfg.Import.SplitMeshes {
		model.CombineMeshes()
	}
	scaleModel(model, cfg.Import.Scale)
	logger.Log.Debug("read model", zap.String("file", path), zap.Stringer("model", model))
	return model, nil
}

func readAnim(path string, cfg *config.Config) (anim *xfile.Anim, err error) {
	k := kindOf(path)
	err = open(path, func(r io.Reader) error {
		var warn error
		switch k {
		case kindAnimBin:
			anim, warn, err = xbin.Decoder{}.DecodeAnim(r)
		case kindAnimText:
			anim, warn, err = xexport.Decoder{}.DecodeAnim(r)
		default:
			return fmt.Errorf("%s: not an anim", path)
		}
		logger.Warnings(path, warn)
		return err
	})
	if err != nil {
		return nil, err
	}

	if k == kindAnimText && cfg.Import.UseNotetrackFile {
		nt := notetrackPath(path)
		if _, serr := os.Stat(nt); serr == nil {
			err = open(nt, func(r io.Reader) error {
				warn, err := xexport.Decoder{}.DecodeNotetrack(r, anim)
				logger.Warnings(nt, warn)
				return err
			})
			if err != nil {
				return nil, err
			}
		}
	}
	scaleAnim(anim, cfg.Import.Scale)
	logger.Log.Debug("read anim", zap.String("file", path), zap.Stringer("anim", anim))
	return anim, nil
}

func writeModel(path string, model *xfile.Model, cfg *config.Config) error {
	return create(path, func(w io.Writer) error {
		var warn, err error
		switch kindOf(path) {
		case kindModelBin:
			warn, err = cfg.Export.BinaryEncoder().EncodeModel(w, model)
		case kindModelText:
			warn, err = cfg.Export.TextEncoder().EncodeModel(w, model)
		default:
			return fmt.Errorf("%s: not a model", path)
		}
		logger.Warnings(path, warn)
		return err
	})
}

func writeAnim(path string, anim *xfile.Anim, cfg *config.Config) error {
	k := kindOf(path)
	err := create(path, func(w io.Writer) error {
		var warn, err error
		switch k {
		case kindAnimBin:
			warn, err = cfg.Export.BinaryEncoder().EncodeAnim(w, anim)
		case kindAnimText:
			warn, err = cfg.Export.TextEncoder().EncodeAnim(w, anim)
		default:
			return fmt.Errorf("%s: not an anim", path)
		}
		logger.Warnings(path, warn)
		return err
	})
	if err != nil || k != kindAnimText || cfg.Export.EmbedNotes {
		return err
	}
	nt := notetrackPath(path)
	return create(nt, func(w io.Writer) error {
		warn, err := cfg.Export.TextEncoder().EncodeNotetrack(w, anim)
		logger.Warnings(nt, warn)
		return err
	})
}

func scaleModel(model *xfile.Model, scale float32) {
	if scale == 1 || scale == 0 {
		return
	}
	for i := range model.Bones {
		model.Bones[i].Offset = model.Bones[i].Offset.Mul(scale)
	}
	for i := range model.Meshes {
		verts := model.Meshes[i].Verts
		for j := range verts {
			verts[j].Offset = verts[j].Offset.Mul(scale)
		}
	}
}

func scaleAnim(anim *xfile.Anim, scale float32) {
	if scale == 1 || scale == 0 {
		return
	}
	for i := range anim.Frames {
		parts := anim.Frames[i].Parts
		for j := range parts {
			parts[j].Offset = parts[j].Offset.Mul(scale)
		}
	}
}
