package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/DrSkyle/rackfit/pkg/config"
	"github.com/DrSkyle/rackfit/pkg/engine/history"
	"github.com/DrSkyle/rackfit/pkg/engine/policy"
	"github.com/DrSkyle/rackfit/pkg/engine/report"
	"github.com/DrSkyle/rackfit/pkg/engine/swarm"
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/DrSkyle/rackfit/pkg/providers/configfile"
	"github.com/DrSkyle/rackfit/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the runtime core.
type Engine struct {
	// Core components.
	Packer *tetris.Packer
	Swarm  *swarm.Engine
	Logger *slog.Logger
	Tracer trace.Tracer

	// Optional collaborators; nil disables them.
	Store     storage.BlobStore
	History   *history.Client
	Admission *policy.Admission
	Notifier  Notifier

	// Out receives the text reports.
	Out io.Writer

	// Immutable config.
	config config.Config

	deployed metric.Int64Counter
	repaired metric.Int64Counter
}

// Notifier is told about every finished run.
type Notifier interface {
	Notify(ctx context.Context, snap history.Snapshot) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		Tracer: otel.Tracer("rackfit/engine"),
		Out:    os.Stdout,
		config: config.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	e.Packer = tetris.NewPacker(e.config.SearchWidth, e.Logger)
	e.Swarm = swarm.NewEngine(e.config.Workers)

	meter := otel.Meter("rackfit/engine")
	var err error
	if e.deployed, err = meter.Int64Counter("rackfit.requests.deployed",
		metric.WithDescription("VM requests placed on a server")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if e.repaired, err = meter.Int64Counter("rackfit.repairs.committed",
		metric.WithDescription("Local-search repairs that were committed")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	return e, nil
}

// WithConfig sets raw config.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithStore sets where report artifacts are written.
func WithStore(s storage.BlobStore) Option {
	return func(e *Engine) {
		e.Store = s
	}
}

// WithHistory enables the run ledger.
func WithHistory(h *history.Client) Option {
	return func(e *Engine) {
		e.History = h
	}
}

// WithAdmission filters requests through policy rules before placement.
func WithAdmission(a *policy.Admission) Option {
	return func(e *Engine) {
		e.Admission = a
	}
}

// WithNotifier announces run summaries.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.Notifier = n
	}
}

// WithOutput redirects text reports.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.Out = w
	}
}

// Result is everything one run produced, ordered by server file then
// request file.
type Result struct {
	Pairs    []report.Pair
	Capacity map[string]tetris.Configuration
}

// Items flattens the result for export.
func (r *Result) Items() []report.ExportItem {
	return report.Items(r.Pairs, r.Capacity)
}

type pairJob struct {
	requestPath string
	serverPath  string
}

// Run places every request file against every server file.
// Any parse or write failure aborts the whole run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()

	if err := e.config.ValidateInputs(); err != nil {
		return nil, e.fail(span, err)
	}

	requestFiles, err := configfile.Discover(e.config.RequestsDir, "r")
	if err != nil {
		return nil, e.fail(span, err)
	}
	serverFiles, err := configfile.Discover(e.config.ServersDir, "s")
	if err != nil {
		return nil, e.fail(span, err)
	}
	if len(requestFiles) == 0 || len(serverFiles) == 0 {
		e.Logger.Warn("Nothing to place",
			"requests_dir", e.config.RequestsDir,
			"request_files", len(requestFiles),
			"servers_dir", e.config.ServersDir,
			"server_files", len(serverFiles),
		)
	}

	var jobs []pairJob
	for _, s := range serverFiles {
		for _, r := range requestFiles {
			jobs = append(jobs, pairJob{requestPath: r, serverPath: s})
		}
	}

	e.Logger.Info("Starting placement run",
		"pairs", len(jobs),
		"search_width", e.config.SearchWidth,
		"workers", e.Swarm.MaxWorkers,
	)
	span.SetAttributes(
		attribute.Int("run.pairs", len(jobs)),
		attribute.Int("run.search_width", e.config.SearchWidth),
	)

	pairs := make([]report.Pair, len(jobs))
	servers := make([]tetris.Configuration, len(jobs))
	tasks := make([]swarm.Task, len(jobs))
	for i, job := range jobs {
		i, job := i, job
		tasks[i] = func(ctx context.Context) error {
			pair, srv, err := e.PlacePair(ctx, job.requestPath, job.serverPath)
			if err != nil {
				return err
			}
			pairs[i], servers[i] = pair, srv
			return nil
		}
	}

	if err := e.Swarm.Run(ctx, tasks); err != nil {
		return nil, e.fail(span, err)
	}

	result := &Result{Pairs: pairs, Capacity: make(map[string]tetris.Configuration)}
	for i, p := range pairs {
		result.Capacity[p.ServerFile] = servers[i]
	}

	if err := e.emit(ctx, result); err != nil {
		return nil, e.fail(span, err)
	}
	if err := e.record(ctx, result); err != nil {
		return nil, e.fail(span, err)
	}
	return result, nil
}

// PlacePair parses one request/server file pair and places it.
// It also returns the parsed servers for utilization reporting.
func (e *Engine) PlacePair(ctx context.Context, requestPath, serverPath string) (pair report.Pair, servers tetris.Configuration, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.PlacePair", trace.WithAttributes(
		attribute.String("pair.requests", requestPath),
		attribute.String("pair.servers", serverPath),
	))
	defer span.End()
	defer e.recoverPanic(span, &err)

	requests, err := configfile.Parse(requestPath)
	if err != nil {
		return report.Pair{}, tetris.Configuration{}, e.fail(span, err)
	}
	servers, err = configfile.Parse(serverPath)
	if err != nil {
		return report.Pair{}, tetris.Configuration{}, e.fail(span, err)
	}

	d := e.Place(ctx, requests, servers)
	span.SetAttributes(
		attribute.Int("pair.deployed", d.DeployedCount),
		attribute.Bool("pair.all_deployed", d.AllDeployed),
	)

	return report.Pair{
		RequestFile: filepath.Base(requestPath),
		ServerFile:  filepath.Base(serverPath),
		Deployment:  d,
	}, servers, nil
}

// Place filters requests through admission and packs them onto servers.
func (e *Engine) Place(ctx context.Context, requests, servers tetris.Configuration) *tetris.Deployment {
	admitted, rejected := requests, []int(nil)
	if e.Admission != nil {
		admitted, rejected = e.Admission.Filter(requests)
	}

	start := time.Now()
	d := e.Packer.Pack(admitted, servers)
	if len(rejected) > 0 {
		d.MarkRejected(rejected...)
	}

	attrs := metric.WithAttributes(attribute.String("critical", d.Critical.String()))
	e.deployed.Add(ctx, int64(d.DeployedCount), attrs)
	e.repaired.Add(ctx, int64(d.RepairsCommitted), attrs)

	e.Logger.Info("Pair placed",
		"request_config", d.RequestConfig,
		"server_config", d.ServerConfig,
		"critical", d.Critical.String(),
		"deployed", d.DeployedCount,
		"requests", d.Requests,
		"rejected", len(rejected),
		"repairs", d.RepairsCommitted,
		"duration", time.Since(start),
	)
	return d
}

// emit prints every text report and stores artifacts when a store is set.
func (e *Engine) emit(ctx context.Context, result *Result) error {
	for _, p := range result.Pairs {
		if err := report.WriteText(e.Out, p.Deployment); err != nil {
			return err
		}
	}

	if e.Store == nil {
		return nil
	}

	for _, p := range result.Pairs {
		var buf strings.Builder
		if err := report.WriteText(&buf, p.Deployment); err != nil {
			return err
		}
		if err := e.Store.Put(ctx, ReportKey(p), []byte(buf.String())); err != nil {
			return fmt.Errorf("%w: %v", report.ErrWrite, err)
		}
	}

	items := result.Items()
	var jsonBuf, csvBuf strings.Builder
	if err := report.WriteJSON(&jsonBuf, items); err != nil {
		return err
	}
	if err := report.WriteCSV(&csvBuf, items); err != nil {
		return err
	}
	if err := e.Store.Put(ctx, "summary.json", []byte(jsonBuf.String())); err != nil {
		return fmt.Errorf("%w: %v", report.ErrWrite, err)
	}
	if err := e.Store.Put(ctx, "summary.csv", []byte(csvBuf.String())); err != nil {
		return fmt.Errorf("%w: %v", report.ErrWrite, err)
	}

	var htmlBuf strings.Builder
	if err := report.WriteDashboard(&htmlBuf, items, time.Now()); err != nil {
		return err
	}
	if err := e.Store.Put(ctx, "dashboard.html", []byte(htmlBuf.String())); err != nil {
		return fmt.Errorf("%w: %v", report.ErrWrite, err)
	}

	e.Logger.Info("Artifacts written", "reports", len(result.Pairs))
	return nil
}

// ReportKey names the stored text report of a pair, e.g. reports/r00_s01.txt.
func ReportKey(p report.Pair) string {
	stem := func(name string) string {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return fmt.Sprintf("reports/%s_%s.txt", stem(p.RequestFile), stem(p.ServerFile))
}

func (e *Engine) record(ctx context.Context, result *Result) error {
	snap := summarize(result, e.config.SearchWidth)

	if e.History != nil {
		if err := e.History.Append(ctx, snap); err != nil {
			return err
		}
	}

	// A failed notification does not fail the run.
	if e.Notifier != nil {
		if err := e.Notifier.Notify(ctx, snap); err != nil {
			e.Logger.Warn("Run notification failed", "error", err)
		}
	}
	return nil
}

func summarize(result *Result, searchWidth int) history.Snapshot {
	snap := history.Snapshot{
		Timestamp:   time.Now().Unix(),
		SearchWidth: searchWidth,
		Pairs:       len(result.Pairs),
	}
	for _, p := range result.Pairs {
		d := p.Deployment
		snap.Requests += d.Requests
		snap.Deployed += d.DeployedCount
		snap.Repairs += d.RepairsCommitted
		if d.AllDeployed {
			snap.FullPairs++
		}
	}
	return snap
}

func (e *Engine) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.Logger.Error("Placement run failed", "error", err)
	return err
}

// recoverPanic turns a panic inside a pair into an error on that pair.
func (e *Engine) recoverPanic(span trace.Span, err *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(attribute.String("crash.reason", fmt.Sprintf("%v", r)))

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("placement panicked: %v", r)
	}
}
