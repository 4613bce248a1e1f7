package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"rwout/archive"
	"rwout/config"
	"rwout/content"
	"rwout/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := config.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to docx", zap.Error(err))
		format = config.OutputFmtDocx
	}

	// command line overrides configuration
	doc := &env.Cfg.Document
	if cmd.IsSet("split") {
		doc.SplitIntoFiles = cmd.Bool("split")
	}
	if cmd.IsSet("index-everywhere") {
		doc.ShowIndexEverywhere = cmd.Bool("index-everywhere")
	}
	if cmd.Bool("no-mask") {
		doc.Images.UseRevealMask = false
	}
	if cmd.IsSet("max-width") {
		w := int(cmd.Int("max-width"))
		if w < 0 {
			return fmt.Errorf("image width must not be negative: %d", w)
		}
		doc.Images.MaxWidth = w
	}

	if doc.StylesheetPath != "" {
		data, err := os.ReadFile(doc.StylesheetPath)
		if err != nil {
			return fmt.Errorf("unable to read style css from %q: %w", doc.StylesheetPath, err)
		}
		env.DefaultStyle = data
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, format config.OutputFmt, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		export, err := isExportFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if export && len(tail) == 0 {
			// single export requested, its failure is the command failure
			file, err := os.Open(head)
			if err != nil {
				return err
			}
			defer file.Close()
			return processExport(ctx, file, filepath.Base(head), dst, format, log)
		}
		return fmt.Errorf("input was not recognized as campaign export (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding exports and archives and processes
// them. Failures of individual exports are logged and do not stop the walk.
func processDir(ctx context.Context, dir, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, format, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		export, err := isExportFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !export {
			log.Debug("Skipping file, not recognized as export or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processExport(ctx, file, src, dst, format, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds exports under "pathIn"
// and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := archive.ReadFile(f)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		if !isExportName(f.Name) && !isExportData(data[:min(len(data), sniffLen)]) {
			log.Debug("Skipping file, not recognized as export", zap.String("archive", path), zap.String("file", f.Name))
			return nil
		}

		count++

		if err := processExport(ctx, bytes.NewReader(data), filepath.Join(pathOut, filepath.FromSlash(f.Name)), dst, format, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processExport converts single campaign export. "src" is part of the source
// path (always including file name) relative to the original path. When
// actual file was specified it will be just base file name without a path.
// When looking inside archive or directory it will be relative path inside
// archive or directory. "dst" is the destination directory where the
// converted output should be written.
func processExport(ctx context.Context, r io.Reader, src, dst string, format config.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// image libraries may panic on malformed data, when many exports are
		// processed we do not want to stop
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("size", outputSize(outputName)))
		}
	}(time.Now())

	doc, err := content.Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to parse campaign export (%s): %w", src, err)
	}
	if env.Rpt == nil {
		// debug report keeps work directory, it is archived on exit
		defer os.RemoveAll(doc.WorkDir)
	}

	opts := content.OptionsFromConfig(&env.Cfg.Document)
	opts.Now = env.Now
	opts.Progress = func(done, total int) {
		log.Debug("Progress", zap.String("from", src), zap.Int("done", done), zap.Int("total", total))
	}
	session, err := content.NewSession(doc.Tree, opts, log)
	if err != nil {
		return fmt.Errorf("unable to prepare campaign export (%s): %w", src, err)
	}
	if env.Rpt != nil {
		if err := os.WriteFile(filepath.Join(doc.WorkDir, filepath.Base(src)+"_session"), []byte(session.String()), 0644); err != nil {
			log.Warn("Unable to save session dump", zap.Error(err))
		}
	}

	outputName = buildOutputPath(session.FrontPage(), src, dst, format, env)
	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}

	gen, err := NewGenerator(format, env.Cfg, env.DefaultStyle, log)
	if err != nil {
		return err
	}
	if err := gen.Generate(ctx, session, outputName); err != nil {
		return fmt.Errorf("unable to generate output: %w", err)
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s", filepath.Base(outputName)), outputName)
	}
	return nil
}

// prepareOutput makes sure output path is free, removing previous output when
// overwrite is allowed, and that its parent directory exists.
func prepareOutput(outputName string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output already exists: %s", outputName)
		}
		log.Warn("Overwriting existing output", zap.String("path", outputName))
		if err = os.RemoveAll(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// outputSize returns human readable size of produced file or directory tree.
func outputSize(path string) string {
	var total uint64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if fi, err := d.Info(); err == nil && fi.Mode().IsRegular() {
			total += uint64(fi.Size())
		}
		return nil
	})
	return humanize.Bytes(total)
}
