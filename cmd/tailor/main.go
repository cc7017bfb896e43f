package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tailor-form/internal/cli"
	"tailor-form/internal/config"
	"tailor-form/internal/logging"
)

type flags struct {
	jd          string
	resume      string
	out         string
	endpoint    string
	contentType string
	configPath  string
	strict      bool
	timeout     time.Duration
	verbose     bool
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "tailor --jd <file|-> --resume <file>",
		Short: "Submit a resume and job description to the tailoring service",
		Long: `Submit a resume and job description to the tailoring service and save
the tailored document it returns.

Examples:
  tailor --jd jd.txt --resume cv.pdf
  pbpaste | tailor --jd - --resume cv.docx --out ~/applications/acme
  tailor --jd jd.txt --resume cv.pdf --endpoint http://tailor.internal:5000/tailor_resume`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.jd, "jd", "", "Job description file, or - to read stdin")
	cmd.Flags().StringVar(&f.resume, "resume", "", "Resume file (PDF or DOCX)")
	cmd.Flags().StringVar(&f.out, "out", ".", "Directory the tailored resume is written to")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "Tailoring service URL (default from config, then "+config.DefaultEndpoint+")")
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "Declared resume type (detected from the file when empty)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Optional YAML config file")
	cmd.Flags().BoolVar(&f.strict, "strict", true, "Only accept PDF and DOCX resumes (default from config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Give up after this long (0 waits indefinitely)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print progress and debug logs")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	// defaults, then the optional file, then environment overrides
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}

	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "error"
	if f.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.CloseLogging()

	endpoint := cfg.Tailor.Endpoint
	if f.endpoint != "" {
		endpoint = f.endpoint
	}

	strict := cfg.Tailor.StrictMIME
	if cmd.Flags().Changed("strict") {
		strict = f.strict
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Run(ctx, cli.Options{
		JobDescriptionPath: f.jd,
		ResumePath:         f.resume,
		ContentType:        f.contentType,
		OutDir:             f.out,
		Endpoint:           endpoint,
		Timeout:            f.timeout,
		UserAgent:          cfg.Tailor.UserAgent,
		StrictMIME:         strict,
		MaxFileSize:        cfg.Tailor.MaxFileSize,
		Verbose:            f.verbose,
	}, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), logging.GetGlobalLogger())
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, cli.ErrSubmissionFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
