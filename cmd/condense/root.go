package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/feichai0017/document-condenser/config"
	"github.com/feichai0017/document-condenser/internal/agent"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/service/condense"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/artifact"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/storage"
)

const sniffLen = 3072

type options struct {
	configPath  string
	endpoint    string
	artifactDir string
	text        string
	ratio       string
	out         string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "condense [file]",
		Short: "Condense a PDF or text document",
		Long: `condense extracts the text of a PDF or plain text file, submits it to the
compression service with the requested retention ratio and stores the result.

Examples:
  # Keep about 30% of a report
  condense --ratio 0.3 report.pdf

  # Condense inline text and print the result
  condense --text "$(cat notes.txt)" --out -

  # Use a profile and a different service
  condense --config condenser.yaml --endpoint http://condenser:8080/process notes.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("CONDENSER_CONFIG"), "YAML profile")
	flags.StringVar(&opts.endpoint, "endpoint", "", "compression service URL (overrides config)")
	flags.StringVar(&opts.artifactDir, "artifact-dir", "", "local artifact directory (overrides config)")
	flags.StringVar(&opts.text, "text", "", "condense this text instead of a file")
	flags.StringVar(&opts.ratio, "ratio", "0.5", "fraction of the text to keep, 0.1 to 1.0")
	flags.StringVar(&opts.out, "out", "", "also write the condensed text here (- for stdout)")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	console := newConsoleSink(cmd.OutOrStdout(), cmd.ErrOrStderr())

	err := condenseOnce(cmd, opts, args, console)
	if err != nil && !console.notified {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

func condenseOnce(cmd *cobra.Command, opts *options, args []string, console *consoleSink) error {
	if (len(args) == 0) == (opts.text == "") {
		return errors.New("provide exactly one of a file argument or --text")
	}

	cfg, err := config.LoadCondenserConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.endpoint != "" {
		cfg.Endpoint = opts.endpoint
	}
	if opts.artifactDir != "" {
		cfg.ArtifactDir = opts.artifactDir
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		return err
	}
	defer log.Sync()

	ratio, err := condense.ParseRatio(opts.ratio)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.NewStorage(ctx, storage.StorageType(cfg.Storage), cfg.ArtifactDir, log)
	if err != nil {
		return err
	}

	sink := status.Multi(console, status.NewLogSink(log))
	holder := artifact.NewHolder(store, log)
	orch := condense.NewOrchestrator(cfg.Endpoint, holder, sink, log, condense.WithTimeout(cfg.RequestTimeout))
	pipeline := condense.NewPipeline(agent.NewResolver(log), orch, sink, log)

	var sess models.Session
	if opts.text != "" {
		sess, err = pipeline.Submit(ctx, pipeline.SetText(sess, opts.text), ratio)
	} else {
		sess, err = runFile(ctx, pipeline, args[0], ratio)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	return writeArtifact(cmd, holder, opts.out)
}

func runFile(ctx context.Context, pipeline *condense.Pipeline, path string, ratio float64) (models.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	file := models.UploadedFile{
		Name:     name,
		MimeType: agent.DeclaredType(name, head),
		Size:     int64(len(data)),
	}
	return pipeline.Run(ctx, models.Session{}, file, bytes.NewReader(data), ratio)
}

func writeArtifact(cmd *cobra.Command, holder *artifact.Holder, out string) error {
	rc, err := holder.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer rc.Close()

	if out == "-" {
		_, err = io.Copy(cmd.OutOrStdout(), rc)
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return f.Close()
}
