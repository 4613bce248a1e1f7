package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rwout/config"
	"rwout/convert"
	"rwout/rw"
	"rwout/state"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:         "convert",
		Usage:        "Converts campaign export(s) to specified format",
		OnUsageError: usageErrorHandler,
		Action:       convert.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Value: config.OutputFmtDocx.String(),
				Usage: "conversion output `TYPE` (supported types: " + strings.Join(config.OutputFmtNames(), ", ") + ")"},
			&cli.BoolFlag{Name: "split", Usage: "html and markdown: produce file per topic (overrides configuration)"},
			&cli.BoolFlag{Name: "index-everywhere", Usage: "html and markdown: repeat topic index on every page"},
			&cli.BoolFlag{Name: "no-mask", Usage: "do not apply reveal masks to smart images"},
			&cli.IntFlag{Name: "max-width", Usage: "downscale images wider than `PIXELS` (0 - keep original size)"},
			&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
		},
		ArgsUsage: "SOURCE [DESTINATION]",
		CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to campaign export(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.rwexport"
        path to a directory: "[path_to_directory]directory" - recursively process all exports under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular export: "[path_to_archive]archive.zip[path_in_archive]/file.rwexport"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all exports under archive path

	Files with .rwexport extension and XML files with "export" root element
	are considered, processing of archives inside archives is not supported.

DESTINATION:
    always a path, output name(s) and extension will be derived from other parameters
    if absent - current working directory. Web site and markdown are produced
    as directories.
`, cli.CommandHelpTemplate),
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:         "dump",
		Usage:        "Prints parsed content tree of campaign export",
		OnUsageError: usageErrorHandler,
		Action:       dumpTree,
		ArgsUsage:    "SOURCE [DESTINATION]",
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: usageErrorHandler,
		Action:       outputConfiguration,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
	}
}

// nopCloser keeps STDOUT open after command is done.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openDestination returns writer for optional destination argument, empty
// name selects STDOUT.
func openDestination(fname string) (io.WriteCloser, string, error) {
	if len(fname) == 0 {
		return nopCloser{os.Stdout}, "STDOUT", nil
	}
	f, err := os.Create(fname)
	if err != nil {
		return nil, "", fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	return f, fname, nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		kind = "actual"
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	out, name, err := openDestination(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	env.Log.Info("Outputing configuration", zap.String("state", kind), zap.String("file", name))
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

func dumpTree(ctx context.Context, cmd *cli.Command) (err error) {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open campaign export: %w", err)
	}
	defer f.Close()

	tree, err := rw.Load(ctx, f, env.Log.Named("dump"))
	if err != nil {
		return err
	}

	out, name, err := openDestination(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	env.Log.Info("Dumping content tree", zap.String("source", src), zap.String("file", name), zap.Int("topics", len(tree.Topics())))
	if _, err = io.WriteString(out, tree.Root.String()+"\n"); err != nil {
		return fmt.Errorf("unable to write content tree: %w", err)
	}
	return nil
}
