// Package service runs the heaptrace pipeline: fetch, parse, summarise,
// export and optionally persist one trace.
package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/heaptrace/internal/parser"
	"github.com/heaptrace/internal/parser/xperf"
	"github.com/heaptrace/internal/repository"
	"github.com/heaptrace/internal/storage"
	"github.com/heaptrace/internal/summary"
	"github.com/heaptrace/pkg/compression"
	"github.com/heaptrace/pkg/config"
	apperrors "github.com/heaptrace/pkg/errors"
	"github.com/heaptrace/pkg/model"
	"github.com/heaptrace/pkg/telemetry"
	"github.com/heaptrace/pkg/utils"
	"github.com/heaptrace/pkg/writer"
)

// DefaultFormat is the parser used when a request names none.
const DefaultFormat = "xperf"

// ResultPrefix is the object key prefix for uploaded outputs.
const ResultPrefix = "results"

// SummaryFile is the name of the summary written next to the events.
const SummaryFile = "summary.json"

// Options holds the collaborators of a Service. Only Config is required.
type Options struct {
	Config *config.Config
	Logger utils.Logger

	// Remote serves cos:// inputs and receives uploaded outputs.
	Remote storage.Storage

	// Repository stores traces for requests with Store set.
	Repository repository.TraceRepository

	// Parsers defaults to a registry holding the xperf parser.
	Parsers *parser.Registry

	Clock utils.Clock
}

// Service is the main application service.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	local   storage.Storage
	remote  storage.Storage
	repo    repository.TraceRepository
	parsers *parser.Registry
	clock   utils.Clock
}

// Request describes one pipeline run.
type Request struct {
	// Input is a local path or a cos:// key.
	Input string
	// RunID names the output directory; a UUID is generated when empty.
	RunID string
	// Format selects the parser.
	Format string
	// Store persists the parsed trace through the repository.
	Store bool
}

// Result describes a completed run.
type Result struct {
	RunID       string
	Source      string
	Events      []model.ParsedEvent
	Summary     *summary.Summary
	Output      *writer.WriteResult
	SummaryPath string
	Uploaded    []string
	Stored      bool
	Timings     map[string]interface{}
}

// New creates a new Service instance.
func New(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "service config is nil")
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	if opts.Clock == nil {
		opts.Clock = utils.NewRealClock()
	}
	if opts.Parsers == nil {
		opts.Parsers = parser.NewRegistry()
		xperf.RegisterWithRegistry(opts.Parsers, opts.Logger)
	}

	local, err := storage.NewLocalStorage("")
	if err != nil {
		return nil, err
	}

	return &Service{
		config:  opts.Config,
		logger:  opts.Logger,
		local:   local,
		remote:  opts.Remote,
		repo:    opts.Repository,
		parsers: opts.Parsers,
		clock:   opts.Clock,
	}, nil
}

// Run executes the pipeline for req. Nothing is written unless the trace
// parses completely.
func (s *Service) Run(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "heaptrace.Run",
		trace.WithAttributes(attribute.String("heaptrace.input", req.Input)))
	defer func() { telemetry.EndSpan(span, err) }()

	loc, err := storage.ParseLocation(req.Input)
	if err != nil {
		return nil, err
	}
	src, err := s.storageFor(loc)
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	p, err := s.parsers.MustGet(format)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "cannot parse input", err)
	}
	if req.Store && s.repo == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "storing traces requires a database")
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("heaptrace.run_id", runID))

	timer := utils.NewTimer("heaptrace", utils.WithLogger(s.logger), utils.WithClock(s.clock))
	res = &Result{RunID: runID, Source: loc.String()}
	s.logger.Info("Run %s: reading %s", runID, res.Source)

	data, err := step(ctx, timer, "fetch", func(ctx context.Context) ([]byte, error) {
		return storage.ReadAll(ctx, src, loc.Key)
	})
	if err != nil {
		return nil, err
	}

	if ct := compression.DetectType(data); ct != compression.TypeNone {
		s.logger.Debug("Input is %s compressed (%d bytes)", ct, len(data))
	}

	res.Events, err = step(ctx, timer, "parse", func(ctx context.Context) ([]model.ParsedEvent, error) {
		return p.Parse(ctx, bytes.NewReader(data))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Parsed %d events", len(res.Events))

	res.Summary, _ = step(ctx, timer, "summarize", func(context.Context) (*summary.Summary, error) {
		return summary.NewCalculator(summary.WithTopN(s.config.Output.TopN)).Calculate(res.Events), nil
	})

	files, err := step(ctx, timer, "write", func(context.Context) ([]string, error) {
		return s.writeOutputs(runID, res)
	})
	if err != nil {
		return nil, err
	}

	if loc.Type == storage.StorageTypeCOS {
		res.Uploaded, err = step(ctx, timer, "upload", func(ctx context.Context) ([]string, error) {
			return s.upload(ctx, runID, files)
		})
		if err != nil {
			return nil, err
		}
	}

	if req.Store {
		_, err = step(ctx, timer, "store", func(ctx context.Context) (struct{}, error) {
			run := &repository.TraceRun{RunID: runID, Source: res.Source}
			return struct{}{}, s.repo.SaveTrace(ctx, run, res.Events)
		})
		if err != nil {
			return nil, err
		}
		res.Stored = true
	}

	res.Timings = timer.ToMap()
	timer.PrintSummary()
	return res, nil
}

func (s *Service) storageFor(loc storage.Location) (storage.Storage, error) {
	if loc.Type != storage.StorageTypeCOS {
		return s.local, nil
	}
	if s.remote == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "cos input requires storage.type=cos")
	}
	return s.remote, nil
}

// writeOutputs writes the event export and summary.json under
// <output.dir>/<runID> and returns their paths.
func (s *Service) writeOutputs(runID string, res *Result) ([]string, error) {
	format, err := writer.ParseFormat(s.config.Output.Format)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid output format", err)
	}
	ct, err := compression.ParseType(s.config.Output.Compression)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid output compression", err)
	}

	dir := filepath.Join(s.config.Output.Dir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to create output directory", err)
	}

	ew := writer.NewEventWriter(format, ct)
	res.Output, err = ew.WriteToFile(res.Events, filepath.Join(dir, ew.FileName("events")))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to write events", err)
	}
	s.logger.Info("Wrote %d events to %s (%d bytes)", res.Output.Events, res.Output.Path, res.Output.CompressedSize)

	sw := writer.NewJSONWriter[*summary.Summary]()
	if s.config.Output.Pretty {
		sw = writer.NewPrettyJSONWriter[*summary.Summary]()
	}
	res.SummaryPath = filepath.Join(dir, SummaryFile)
	if err := sw.WriteToFile(res.Summary, res.SummaryPath); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to write summary", err)
	}

	return []string{res.Output.Path, res.SummaryPath}, nil
}

func (s *Service) upload(ctx context.Context, runID string, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := path.Join(ResultPrefix, runID, filepath.Base(f))
		if err := s.remote.UploadFile(ctx, key, f); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("failed to upload %s", key), err)
		}
		url := s.remote.GetURL(key)
		s.logger.Info("Uploaded %s", url)
		urls = append(urls, url)
	}
	return urls, nil
}

// step runs fn as a timed phase inside its own span.
func step[T any](ctx context.Context, timer *utils.Timer, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "heaptrace."+name)
	pt := timer.Start(name)
	v, err := fn(ctx)
	d := pt.Stop()
	span.SetAttributes(attribute.Int64("heaptrace.duration_ms", d.Milliseconds()))
	telemetry.EndSpan(span, err)
	return v, err
}
