package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pdf2text/internal/config"
	"pdf2text/internal/converter"
	"pdf2text/internal/logging"
	"pdf2text/internal/pdf"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flags shared by every command
type options struct {
	configFile string
	source     string
	target     string
	pdfplumber bool
	pdfminer   bool
	ocr        bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pdf2text [flags] input_file",
		Short: "Extract plain text from a PDF, optionally after an OCR pass",
		Long: `pdf2text writes {basename}.{engine}.txt into the target directory for every
selected engine. With --ocr the input is first run through ocrmypdf, producing
{basename}.tesseract.pdf and {basename}.tesseract.txt. Outputs that are newer
than their source are left alone.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			conv, err := converter.NewConverter(cfg, logger)
			if err != nil {
				return err
			}
			result, err := conv.Convert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.source, "source", "s", "", "base directory for relative input paths (env SOURCE_DIR, default cwd)")
	flags.StringVarP(&opts.target, "target", "t", "", "output directory (env TARGET_DIR, default cwd)")
	flags.BoolVar(&opts.pdfplumber, "pdfplumber", false, "extract with the pdfplumber engine")
	flags.BoolVar(&opts.pdfminer, "pdfminer", false, "extract with the pdfminer engine")
	flags.BoolVar(&opts.ocr, "ocr", false, "run an OCR pass before extraction (env OCR_ENABLED)")
	flags.StringVar(&opts.configFile, "config", "", "YAML configuration file (env PDF2TEXT_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL, default info)")

	root.AddCommand(newBatchCmd(opts), newWatchCmd(opts), newEnginesCmd())
	return root
}

// load builds the configuration from file, environment and flags, and the
// logger it asks for. A missing engine selection prints usage.
func (o *options) load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourceDir = o.source
	}
	if flags.Changed("target") {
		cfg.TargetDir = o.target
	}
	if o.pdfplumber || o.pdfminer {
		cfg.Engines = nil
		if o.pdfplumber {
			cfg.AddEngine(pdf.PlumberName)
		}
		if o.pdfminer {
			cfg.AddEngine(pdf.MinerName)
		}
	}
	if flags.Changed("ocr") {
		cfg.OCREnabled = o.ocr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("schedule") {
		cfg.WatchSchedule, _ = flags.GetString("schedule")
	}

	if err := cfg.Validate(); err != nil {
		if eris.Is(err, config.ErrNoEngine) {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		}
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newBatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:           "batch",
		Short:         "Convert every PDF in the source directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			conv, err := converter.NewConverter(cfg, logger)
			if err != nil {
				return err
			}
			results, err := conv.ConvertDir(cmd.Context())
			for _, result := range results {
				printResult(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
}

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available extraction engines",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range pdf.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func printResult(w io.Writer, result *converter.Result) {
	if result.OCRPath != "" {
		fmt.Fprintf(w, "%s %s\n", status(result.OCRSkipped), result.OCRPath)
	}
	for _, out := range result.Outputs {
		fmt.Fprintf(w, "%s %s\n", status(out.Skipped), out.Path)
	}
}

func status(skipped bool) string {
	if skipped {
		return "up-to-date"
	}
	return "wrote"
}
