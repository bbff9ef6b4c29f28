package churn

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/monitoring"
)

// RawTables holds the four inputs as read, with raw column names.
type RawTables struct {
	Contract *dataframe.DataFrame
	Internet *dataframe.DataFrame
	Personal *dataframe.DataFrame
	Phone    *dataframe.DataFrame
}

// Get returns the table for t.
func (r RawTables) Get(t Table) *dataframe.DataFrame {
	switch t {
	case TableContract:
		return r.Contract
	case TableInternet:
		return r.Internet
	case TablePersonal:
		return r.Personal
	case TablePhone:
		return r.Phone
	default:
		return nil
	}
}

// Set stores df as table t.
func (r *RawTables) Set(t Table, df *dataframe.DataFrame) {
	switch t {
	case TableContract:
		r.Contract = df
	case TableInternet:
		r.Internet = df
	case TablePersonal:
		r.Personal = df
	case TablePhone:
		r.Phone = df
	}
}

// Options configures Preprocess.
type Options struct {
	Contract ContractOptions
	// DropColumns are removed after the merge; nil means DefaultDropColumns.
	DropColumns []string
	Logger      *zap.Logger
	Metrics     *monitoring.MetricsCollector
}

// Result is the output of Preprocess.
type Result struct {
	Frame   *dataframe.DataFrame
	Reports []CleaningReport
}

// Preprocess normalizes and cleans the four tables concurrently, merges them
// and drops the bookkeeping columns.
func Preprocess(ctx context.Context, raw RawTables, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("churn")

	for _, t := range Tables {
		if raw.Get(t) == nil {
			return nil, errors.NewInvalidInputError("Preprocess", "missing "+string(t)+" table")
		}
	}

	var cleaned RawTables
	reports := make([]CleaningReport, len(Tables))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range Tables {
		g.Go(func() error {
			start := time.Now()
			df, report, err := cleanTable(gctx, t, raw.Get(t), opts.Contract)
			if err != nil {
				return err
			}
			opts.Metrics.Record("clean_"+string(t), time.Since(start), df.Len())
			logger.Debug("table cleaned", zap.String("table", string(t)), report.Field())
			cleaned.Set(t, df)
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	merged, err := Merge(cleaned.Contract, cleaned.Personal, cleaned.Internet, cleaned.Phone)
	if err != nil {
		return nil, err
	}
	opts.Metrics.Record("merge", time.Since(start), merged.Len())

	drop := opts.DropColumns
	if drop == nil {
		drop = DefaultDropColumns
	}
	out := merged.Drop(drop...)

	logger.Info("preprocessing finished",
		zap.Int("rows", out.Len()),
		zap.Int("columns", out.Width()),
		zap.Strings("dropped", drop))

	return &Result{Frame: out, Reports: reports}, nil
}

func cleanTable(
	ctx context.Context, t Table, df *dataframe.DataFrame, contract ContractOptions,
) (*dataframe.DataFrame, CleaningReport, error) {
	normalized, err := NormalizeColumns(df)
	if err != nil {
		return nil, newReport(t, df.Len()), err
	}

	switch t {
	case TableContract:
		return CleanContract(ctx, normalized, contract)
	case TablePersonal:
		return CleanPersonal(normalized)
	case TableInternet:
		return CleanInternet(normalized)
	default:
		return CleanPhone(normalized)
	}
}
