package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/howplatform/ocr-client/internal/config"
	"github.com/howplatform/ocr-client/internal/download"
	"github.com/howplatform/ocr-client/internal/form"
	"github.com/howplatform/ocr-client/internal/models"
	"github.com/howplatform/ocr-client/internal/storage"
	"github.com/howplatform/ocr-client/internal/upload"
	"github.com/labstack/gommon/log"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	file        string
	apiKey      string
	outputName  string
	flow        string
	server      string
	lang        string
	download    bool
	outDir      string
	noColor     bool
	showVersion bool
	initConfig  bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("ocrclient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ocrclient [flags] [file.pdf]\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "ocrclient.yaml", "path to the YAML config file")
	fs.StringVar(&opts.file, "file", "", "PDF file to upload (or pass it as the first argument)")
	fs.StringVar(&opts.apiKey, "api-key", "", "API key forwarded to the OCR service")
	fs.StringVar(&opts.outputName, "output-name", "", "name of the produced document (two-step flow only)")
	fs.StringVar(&opts.flow, "flow", "", "submission flow: single or two-step, overrides the config")
	fs.StringVar(&opts.server, "server", "", "OCR server base URL, overrides the config")
	fs.StringVar(&opts.lang, "lang", "", "message language: ar or en")
	fs.BoolVar(&opts.download, "download", false, "download the produced document after OCR")
	fs.StringVar(&opts.outDir, "out", "", "directory for downloaded documents")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	fs.BoolVar(&opts.initConfig, "init-config", false, "write a default config file and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 1 || (opts.file != "" && fs.NArg() > 0) {
		return nil, fmt.Errorf("only one file can be uploaded at a time")
	}
	if fs.NArg() == 1 {
		opts.file = fs.Arg(0)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "ocrclient %s (built %s)\n", Version, BuildTime)
		return exitOK
	}

	if opts.initConfig {
		if err := config.DefaultConfig().Save(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "Failed to write configuration: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Wrote default configuration to %s\n", opts.configPath)
		return exitOK
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return exitUsage
	}

	logger := log.New("ocrclient")
	logger.SetOutput(stderr)
	logger.SetLevel(cfg.GetLogLevel())
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")

	httpClient := &http.Client{Timeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second}
	if cfg.Advanced.EnableRequestLogging {
		httpClient.Transport = upload.NewLoggingTransport(nil, logger)
	}

	flow, err := upload.ParseFlow(cfg.Server.Flow)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return exitUsage
	}
	if opts.outputName != "" && flow != upload.FlowTwoStep {
		fmt.Fprintf(stderr, "Invalid options: -output-name requires the two-step flow\n")
		return exitUsage
	}

	maxSize, _ := cfg.MaxUploadBytes()
	client := upload.NewClient(cfg.GetEndpointURL(),
		upload.WithFlow(flow),
		upload.WithHTTPClient(httpClient),
		upload.WithLogger(logger),
		upload.WithMaxUploadSize(maxSize),
		upload.WithAllowedExtensions(cfg.GetAllowedExtensions()),
		upload.WithProgressInterval(time.Duration(cfg.Upload.ProgressIntervalMillis)*time.Millisecond),
	)

	view := form.NewTerminalView(stdout, stderr, cfg.Output.Color)
	handler := form.NewHandler(client, view, form.MessagesFor(cfg.Output.Language), logger)

	input := form.Input{APIKey: cfg.Server.APIKey, OutputFilename: opts.outputName}
	if opts.file != "" {
		doc, closer, err := models.OpenDocument(opts.file)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitFailure
		}
		defer closer.Close()
		input.File = doc
	}

	resp, err := handler.Submit(ctx, input)
	if err != nil {
		return exitFailure
	}
	printDetails(stdout, resp)

	if !cfg.Output.AutoDownload || resp.DownloadURL == "" {
		return exitOK
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	store, err := storage.NewLocalStore(cfg.Output.DownloadDirectory)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	downloader, err := download.NewDownloader(cfg.Server.BaseURL, store, httpClient, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	info, err := downloader.Fetch(ctx, resp.DownloadURL, func(p models.Progress) {
		if pct := p.Percent(); pct >= 0 {
			view.SetProgress(pct)
		}
	})
	if err != nil {
		view.Alert(err.Error())
		return exitFailure
	}
	fmt.Fprintf(stdout, "Saved %s\n", info.Path)
	return exitOK
}

// applyFlags lets command line flags win over the config file.
func applyFlags(cfg *config.AppConfig, opts *options) error {
	if opts.server != "" {
		cfg.Server.BaseURL = opts.server
	}
	if opts.apiKey != "" {
		cfg.Server.APIKey = opts.apiKey
	}
	if opts.lang != "" {
		cfg.Output.Language = opts.lang
	}
	if opts.flow != "" {
		cfg.Server.Flow = opts.flow
	}
	if opts.download {
		cfg.Output.AutoDownload = true
	}
	if opts.outDir != "" {
		dir, err := filepath.Abs(opts.outDir)
		if err != nil {
			return err
		}
		cfg.Output.DownloadDirectory = dir
	}
	if opts.noColor {
		cfg.Output.Color = false
	}
	return cfg.Validate()
}

func printDetails(w io.Writer, resp *models.Response) {
	if resp.PageCount != nil {
		fmt.Fprintf(w, "Pages: %d\n", *resp.PageCount)
	}
	if resp.WordCount != nil {
		fmt.Fprintf(w, "Words: %d\n", *resp.WordCount)
	}
	if resp.OutputFilename != "" {
		fmt.Fprintf(w, "Output: %s\n", resp.OutputFilename)
	}
	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
	}
}
