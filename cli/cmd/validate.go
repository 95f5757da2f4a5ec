package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sift/adapter"
	"github.com/pithecene-io/sift/adapter/frame"
	"github.com/pithecene-io/sift/adapter/jsonl"
	redissink "github.com/pithecene-io/sift/adapter/redis"
	"github.com/pithecene-io/sift/adapter/webhook"
	"github.com/pithecene-io/sift/chunk"
	"github.com/pithecene-io/sift/cli/config"
	"github.com/pithecene-io/sift/log"
	"github.com/pithecene-io/sift/metrics"
	"github.com/pithecene-io/sift/scan"
	"github.com/pithecene-io/sift/stream"
	"github.com/pithecene-io/sift/types"
	"github.com/pithecene-io/sift/valid"
)

// Exit codes for sift validate.
const (
	exitSuccess    = 0
	exitValidation = 1
	exitFatal      = 2
	exitIO         = 3
)

// ValidateCommand returns the validate command, the binary's only
// command that consumes input.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Stream-validate a JSON array or NDJSON input",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to sift.yaml config file",
			},
			// Input flags
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input file path, or - for stdin",
				Value:   "-",
			},
			&cli.StringFlag{
				Name:  "s3",
				Usage: "S3 input as s3://bucket/key (overrides --input)",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region for --s3",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Custom S3 endpoint URL (R2, MinIO)",
			},
			&cli.BoolFlag{
				Name:  "s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			&cli.BoolFlag{
				Name:  "gzip",
				Usage: "Decompress gzip input transparently",
			},
			&cli.BoolFlag{
				Name:  "lines",
				Usage: "Treat input as newline-delimited JSON instead of a top-level array",
			},
			// Validation flags
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "Field schema, e.g. \"id:number,name:string,age:number?\"",
			},
			&cli.StringFlag{
				Name:  "on-error",
				Usage: "Per-item failure handling: fail, skip or collect",
			},
			// Limit flags
			&cli.IntFlag{
				Name:  "max-items",
				Usage: "Stop after N valid items (0 = unbounded)",
			},
			&cli.StringFlag{
				Name:  "max-bytes",
				Usage: "Abort after consuming this much input, e.g. 100MB (0 = unbounded)",
			},
			&cli.StringFlag{
				Name:  "timeout",
				Usage: "Abort after this wall-clock time, e.g. 30s or plain milliseconds",
			},
			&cli.IntFlag{
				Name:  "high-water-mark",
				Usage: "Chunk read-ahead depth (negative disables)",
			},
			// Output flags
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file path, or - for stdout",
				Value:   "-",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: jsonl or frame",
			},
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Batch output writes in groups of N (jsonl only)",
			},
			&cli.StringFlag{
				Name:  "redis-url",
				Usage: "Also publish each item to this Redis URL",
			},
			&cli.StringFlag{
				Name:  "redis-channel",
				Usage: "Redis pub/sub channel (default sift:items)",
			},
			&cli.StringFlag{
				Name:  "webhook-url",
				Usage: "Also POST each item to this URL",
			},
			&cli.StringSliceFlag{
				Name:  "webhook-header",
				Usage: "Webhook header as 'Name: value' (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress the summary and per-item error report",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Emit pipeline debug logs to stderr",
			},
		},
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), exitIO)
		}
		cfg = loaded
	}

	opts, err := resolveOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	mode := "array"
	if c.Bool("lines") || (!c.IsSet("lines") && cfg.Mode == "lines") {
		mode = "lines"
	}

	collector := metrics.NewCollector("", mode)
	opts.Collector = collector
	if c.Bool("verbose") {
		opts.Logger = log.NewLogger(log.StreamMeta{Mode: mode})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	validator, err := resolveValidator(c, cfg)
	if err != nil {
		defer func() { _ = src.Close() }()
		return cli.Exit(err.Error(), exitIO)
	}

	sink, err := buildSink(c, cfg)
	if err != nil {
		defer func() { _ = src.Close() }()
		return cli.Exit(err.Error(), exitIO)
	}

	var s *stream.Stream[any]
	if mode == "lines" {
		s = stream.NewLines(src, validator, opts)
	} else {
		s = stream.New(src, validator, opts)
	}

	started := time.Now()
	pipeErr := s.PipeTo(ctx, sink)
	itemErrs := s.Errors()

	if !c.Bool("quiet") {
		printSummary(collector, itemErrs, time.Since(started))
	}

	if pipeErr != nil {
		return cli.Exit(pipeErr.Error(), classifyExit(pipeErr))
	}
	if len(itemErrs) > 0 {
		return cli.Exit(fmt.Sprintf("%d item(s) failed validation", len(itemErrs)), exitValidation)
	}
	return nil
}

// resolveOptions merges config file defaults with flags. Flags win.
func resolveOptions(c *cli.Context, cfg *config.Config) (stream.Options, error) {
	opts := cfg.StreamOptions()

	if c.IsSet("max-items") {
		opts.MaxItems = c.Int("max-items")
	}
	if c.IsSet("max-bytes") {
		size, err := stream.ParseByteSize(c.String("max-bytes"))
		if err != nil {
			return opts, fmt.Errorf("--max-bytes: %w", err)
		}
		opts.MaxBytes = size
	}
	if c.IsSet("timeout") {
		timeout, err := stream.ParseTimeout(c.String("timeout"))
		if err != nil {
			return opts, fmt.Errorf("--timeout: %w", err)
		}
		opts.Timeout = timeout
	}
	if c.IsSet("on-error") {
		mode, err := types.ParseErrorMode(c.String("on-error"))
		if err != nil {
			return opts, fmt.Errorf("--on-error: %w", err)
		}
		opts.ErrorMode = mode
	}
	if c.IsSet("high-water-mark") {
		opts.HighWaterMark = c.Int("high-water-mark")
	}
	return opts, nil
}

// openSource builds the chunk source from flags and config defaults.
func openSource(ctx context.Context, c *cli.Context, cfg *config.Config) (chunk.Source, error) {
	gzipped := c.Bool("gzip") || (!c.IsSet("gzip") && cfg.Input.Gzip)

	s3URL := c.String("s3")
	if s3URL == "" {
		s3URL = cfg.Input.S3
	}
	if s3URL != "" {
		trimmed := strings.TrimPrefix(s3URL, "s3://")
		bucket, key := chunk.ParseS3Path(trimmed)
		region := c.String("region")
		if region == "" {
			region = cfg.Input.Region
		}
		endpoint := c.String("endpoint")
		if endpoint == "" {
			endpoint = cfg.Input.Endpoint
		}
		return chunk.FromS3(ctx, chunk.S3Config{
			Bucket:       bucket,
			Key:          key,
			Region:       region,
			Endpoint:     endpoint,
			UsePathStyle: c.Bool("s3-path-style") || cfg.Input.S3PathStyle,
			Gzip:         gzipped,
		})
	}

	path := c.String("input")
	if !c.IsSet("input") && cfg.Input.Path != "" {
		path = cfg.Input.Path
	}
	if path == "-" {
		if gzipped {
			return chunk.FromGzipReader(os.Stdin)
		}
		return chunk.FromReader(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if gzipped {
		src, err := chunk.FromGzipReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return src, nil
	}
	return chunk.FromReadCloser(f), nil
}

// resolveValidator builds the item validator. With no schema every
// well-formed item passes.
func resolveValidator(c *cli.Context, cfg *config.Config) (types.Validator[any], error) {
	schema := c.String("schema")
	if schema == "" {
		schema = cfg.Schema
	}
	if schema == "" {
		return valid.Any(), nil
	}
	obj, err := valid.ParseSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("--schema: %w", err)
	}
	return obj.AsValue(), nil
}

// buildSink assembles the output sink chain from flags and config.
func buildSink(c *cli.Context, cfg *config.Config) (stream.Sink[any], error) {
	var sinks []stream.Sink[any]

	primary, err := buildPrimarySink(c, cfg)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, primary)

	redisURL := c.String("redis-url")
	if redisURL == "" {
		redisURL = cfg.Output.Redis.URL
	}
	if redisURL != "" {
		channel := c.String("redis-channel")
		if channel == "" {
			channel = cfg.Output.Redis.Channel
		}
		rcfg := redissink.Config{
			URL:     redisURL,
			Channel: channel,
			Timeout: cfg.Output.Redis.Timeout.Duration,
		}
		if cfg.Output.Redis.Retries != nil {
			rcfg.Retries = *cfg.Output.Redis.Retries
		}
		rs, err := redissink.New[any](rcfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, rs)
	}

	webhookURL := c.String("webhook-url")
	if webhookURL == "" {
		webhookURL = cfg.Output.Webhook.URL
	}
	if webhookURL != "" {
		headers := make(map[string]string, len(cfg.Output.Webhook.Headers))
		for k, v := range cfg.Output.Webhook.Headers {
			headers[k] = v
		}
		for _, h := range c.StringSlice("webhook-header") {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return nil, fmt.Errorf("--webhook-header %q: expected 'Name: value'", h)
			}
			headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
		wcfg := webhook.Config{
			URL:     webhookURL,
			Headers: headers,
			Timeout: cfg.Output.Webhook.Timeout.Duration,
		}
		if cfg.Output.Webhook.Retries != nil {
			wcfg.Retries = *cfg.Output.Webhook.Retries
		}
		w, err := webhook.New[any](wcfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return adapter.Multi(sinks...), nil
}

// buildPrimarySink creates the file/stdout sink in the chosen format.
func buildPrimarySink(c *cli.Context, cfg *config.Config) (stream.Sink[any], error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	if format == "" {
		format = "jsonl"
	}

	path := c.String("out")
	if !c.IsSet("out") && cfg.Output.Path != "" {
		path = cfg.Output.Path
	}

	batch := c.Int("batch")
	if !c.IsSet("batch") {
		batch = cfg.Output.BatchSize
	}

	var w io.Writer = os.Stdout
	var wc io.WriteCloser
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		wc = f
	}

	switch format {
	case "jsonl":
		var s *jsonl.Sink[any]
		if wc != nil {
			s = jsonl.NewCloser[any](wc)
		} else {
			s = jsonl.New[any](w)
		}
		if batch > 0 {
			return adapter.NewBuffered[any](s, adapter.BufferedConfig{BatchSize: batch})
		}
		return s, nil
	case "frame":
		if batch > 0 {
			return nil, errors.New("--batch is only supported with jsonl output")
		}
		if wc != nil {
			return frame.NewCloser[any](wc), nil
		}
		return frame.New[any](w), nil
	default:
		return nil, fmt.Errorf("invalid format %q: expected jsonl or frame", format)
	}
}

// classifyExit maps a fatal pipeline error to an exit code.
func classifyExit(err error) int {
	if scan.IsParseError(err) || stream.IsLimitError(err) {
		return exitFatal
	}
	var itemErr *types.ItemError
	if errors.As(err, &itemErr) {
		return exitValidation
	}
	return exitIO
}

// printSummary writes the run report to stderr, keeping stdout clean
// for item output.
func printSummary(collector *metrics.Collector, itemErrs []types.ItemError, elapsed time.Duration) {
	snap := collector.Snapshot()
	fmt.Fprintf(os.Stderr, "sift: %d item(s) emitted, %d skipped, %d collected, %d chunk(s), %d byte(s), %s\n",
		snap.ItemsEmitted, snap.ItemsSkipped, snap.ItemsCollected,
		snap.ChunksRead, snap.BytesConsumed, elapsed.Round(time.Millisecond))
	for _, ie := range itemErrs {
		fmt.Fprintf(os.Stderr, "sift: %v\n", &ie)
	}
}
