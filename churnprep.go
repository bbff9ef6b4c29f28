// Package churnprep prepares telecom customer data for churn modeling.
//
// A Pipeline reads the four raw tables (contract, internet, personal, phone)
// from CSV files, an Excel workbook or a SQL database, cleans and merges them
// into one row per customer, and can go on to split, encode and scale the
// result for a classifier:
//
//	cfg, err := churnprep.LoadConfig("churnprep.yaml")
//	if err != nil {
//		return err
//	}
//	p, err := churnprep.New(cfg, churnprep.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	result, err := p.Run(ctx)
package churnprep

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paveg/churnprep/internal/churn"
	"github.com/paveg/churnprep/internal/config"
	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/io"
	"github.com/paveg/churnprep/internal/model"
	"github.com/paveg/churnprep/internal/monitoring"
	"github.com/paveg/churnprep/internal/prep"
)

// Config is the run configuration.
type Config = config.Config

// NewConfig returns the default configuration.
func NewConfig() Config { return config.NewConfig() }

// LoadConfig reads path (optional), applies CHURNPREP_* environment
// overrides and validates the result.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Pipeline runs the churn preparation stages for one configuration.
type Pipeline struct {
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.MetricsCollector
	memory  *MemoryManager
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records stage timings into mc.
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(p *Pipeline) { p.metrics = mc }
}

// WithAllocator sets the Arrow allocator used for loaded tables.
func WithAllocator(mem memory.Allocator) Option {
	return func(p *Pipeline) { p.memory = NewMemoryManager(mem) }
}

// New validates cfg and builds a Pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: zap.NewNop(),
		memory: NewMemoryManager(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil && cfg.Metrics.Enabled {
		p.metrics = monitoring.NewMetricsCollector(true)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Metrics returns the collector, nil when metrics are disabled.
func (p *Pipeline) Metrics() *monitoring.MetricsCollector { return p.metrics }

// Close releases every table the pipeline loaded.
func (p *Pipeline) Close() {
	p.memory.ReleaseAll()
}

// Load reads the four raw tables concurrently from the configured source.
func (p *Pipeline) Load(ctx context.Context) (churn.RawTables, error) {
	in := p.cfg.Input
	mem := p.memory.Allocator()

	readers := make(map[churn.Table]io.DataReader, len(churn.Tables))
	names := map[churn.Table]string{
		churn.TableContract: in.Tables.Contract,
		churn.TableInternet: in.Tables.Internet,
		churn.TablePersonal: in.Tables.Personal,
		churn.TablePhone:    in.Tables.Phone,
	}

	switch in.Source {
	case config.SourceCSV:
		for t, name := range names {
			readers[t] = csvFileReader{path: filepath.Join(in.Dir, name+".csv"), mem: mem}
		}
	case config.SourceExcel:
		for t, name := range names {
			readers[t] = io.NewExcelReader(in.Workbook, name, mem)
		}
	case config.SourceSQL:
		db, err := p.openDatabase(ctx)
		if err != nil {
			return churn.RawTables{}, err
		}
		defer db.Close()
		for t, name := range names {
			readers[t] = io.NewSQLReader(db, io.TableQuery(name), mem)
		}
	default:
		return churn.RawTables{}, fmt.Errorf("unsupported input source %q", in.Source)
	}

	start := time.Now()
	var (
		mu  sync.Mutex
		raw churn.RawTables
	)
	// tables from a failed load are released at once; the rest live until Close
	loaded := NewMemoryManager(mem)
	g, gctx := errgroup.WithContext(ctx)
	for t, r := range readers {
		g.Go(func() error {
			df, err := r.Read(gctx)
			if err != nil {
				return fmt.Errorf("reading %s table: %w", t, err)
			}
			loaded.Track(df)
			mu.Lock()
			raw.Set(t, df)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		loaded.ReleaseAll()
		return churn.RawTables{}, err
	}
	for _, t := range churn.Tables {
		p.memory.Track(raw.Get(t))
	}

	rows := 0
	for _, t := range churn.Tables {
		df := raw.Get(t)
		rows += df.Len()
		p.logger.Debug("table loaded",
			zap.String("table", string(t)),
			zap.String("source", in.Source),
			zap.Int("rows", df.Len()),
			zap.Int("columns", df.Width()))
	}
	p.metrics.Record("load", time.Since(start), rows)
	return raw, nil
}

// Preprocess cleans and merges raw into the modeling table.
func (p *Pipeline) Preprocess(ctx context.Context, raw churn.RawTables) (*churn.Result, error) {
	contract, err := ContractOptions(p.cfg)
	if err != nil {
		return nil, err
	}

	return churn.Preprocess(ctx, raw, churn.Options{
		Contract:    contract,
		DropColumns: p.cfg.Cleaning.DropColumns,
		Logger:      p.logger,
		Metrics:     p.metrics,
	})
}

// Prepare splits, encodes and scales the preprocessed table.
func (p *Pipeline) Prepare(df *dataframe.DataFrame) (*prep.Data, error) {
	var data *prep.Data
	err := p.metrics.RecordOperation("prepare", func() (int, error) {
		var err error
		data, err = prep.Prepare(df, PrepareOptions(p.cfg, p.logger))
		if err != nil {
			return 0, err
		}
		return len(data.YTrain) + len(data.YTest), nil
	})
	return data, err
}

// Evaluation is the test-set score of one classifier.
type Evaluation struct {
	Model   string
	Metrics model.Metrics
}

// DefaultClassifiers returns the in-repo baselines.
func DefaultClassifiers() []model.Classifier {
	return []model.Classifier{
		model.NewDummyClassifier(),
		model.NewLogisticRegression(model.DefaultLogisticOptions()),
	}
}

// Evaluate fits each classifier on the scaled train set and scores it on the
// scaled test set. With no classifiers the baselines are used.
func (p *Pipeline) Evaluate(data *prep.Data, classifiers ...model.Classifier) ([]Evaluation, error) {
	if len(classifiers) == 0 {
		classifiers = DefaultClassifiers()
	}

	train, test, err := data.Matrices()
	if err != nil {
		return nil, err
	}

	evaluations := make([]Evaluation, 0, len(classifiers))
	for _, clf := range classifiers {
		start := time.Now()
		if err := clf.Fit(train, data.YTrain); err != nil {
			return nil, fmt.Errorf("fitting %s: %w", clf.Name(), err)
		}
		pred, err := clf.Predict(test)
		if err != nil {
			return nil, fmt.Errorf("predicting with %s: %w", clf.Name(), err)
		}
		metrics, err := model.Evaluate(data.YTest, pred)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", clf.Name(), err)
		}
		p.metrics.Record("evaluate_"+clf.Name(), time.Since(start), len(pred))
		p.logger.Info("model evaluated", zap.String("model", clf.Name()), zap.Object("metrics", metrics))
		evaluations = append(evaluations, Evaluation{Model: clf.Name(), Metrics: metrics})
	}
	return evaluations, nil
}

// Write stores df at the configured output path.
func (p *Pipeline) Write(df *dataframe.DataFrame) error {
	out := p.cfg.Output
	return p.metrics.RecordOperation("write", func() (int, error) {
		if err := io.WriteFile(out.Path, out.Format, df); err != nil {
			return 0, fmt.Errorf("writing %s: %w", out.Path, err)
		}
		p.logger.Info("table written", zap.String("path", out.Path), zap.Int("rows", df.Len()))
		return df.Len(), nil
	})
}

// Run loads, preprocesses and writes the modeling table.
func (p *Pipeline) Run(ctx context.Context) (*churn.Result, error) {
	raw, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	result, err := p.Preprocess(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := p.Write(result.Frame); err != nil {
		return nil, err
	}

	if p.metrics != nil {
		summary := p.metrics.GetSummary()
		p.logger.Info("run finished",
			zap.Int("stages", summary.TotalOperations),
			zap.Int64("rows", summary.TotalRows),
			zap.Duration("duration", summary.TotalDuration))
	}
	return result, nil
}

// ContractOptions builds the contract cleaning options from cfg.
func ContractOptions(cfg Config) (churn.ContractOptions, error) {
	policy, err := churn.ParseMonthToMonthPolicy(cfg.Cleaning.MonthToMonthPolicy)
	if err != nil {
		return churn.ContractOptions{}, err
	}
	horizon, err := cfg.HorizonDate()
	if err != nil {
		return churn.ContractOptions{}, err
	}
	return churn.ContractOptions{
		Resolver:          churn.NewResolver(cfg.Cleaning.ReferenceYear, policy),
		Horizon:           horizon,
		ParallelThreshold: cfg.Cleaning.ParallelThreshold,
		Workers:           cfg.Cleaning.Workers,
	}, nil
}

// PrepareOptions builds the preparation options from cfg.
func PrepareOptions(cfg Config, logger *zap.Logger) prep.Options {
	return prep.Options{
		Target:        cfg.Prepare.Target,
		OneHotColumns: cfg.Prepare.OneHotColumns,
		LabelColumns:  cfg.Prepare.LabelColumns,
		ScaleColumns:  cfg.Prepare.ScaleColumns,
		TestSize:      cfg.Prepare.TestSize,
		Seed:          cfg.Prepare.Seed,
		OverSample:    cfg.Prepare.OverSample,
		Logger:        logger,
	}
}

type csvFileReader struct {
	path string
	mem  memory.Allocator
}

func (r csvFileReader) Read(ctx context.Context) (*dataframe.DataFrame, error) {
	return io.ReadCSVFile(ctx, r.path, r.mem)
}

func (p *Pipeline) openDatabase(ctx context.Context) (*sqlx.DB, error) {
	sqlCfg := p.cfg.Input.SQL
	dsn := sqlCfg.DSN
	if dsn == "" && sqlCfg.Driver == io.DriverSnowflake {
		var err error
		dsn, err = io.SnowflakeConfig{
			Account:   sqlCfg.Account,
			User:      sqlCfg.User,
			Password:  sqlCfg.Password,
			Database:  sqlCfg.Database,
			Schema:    sqlCfg.Schema,
			Warehouse: sqlCfg.Warehouse,
			Role:      sqlCfg.Role,
		}.DSN()
		if err != nil {
			return nil, err
		}
	}
	return io.OpenSQL(ctx, sqlCfg.Driver, dsn, sqlCfg.Timeout)
}
