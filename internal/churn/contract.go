package churn

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/common"
	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/dates"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/parallel"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/validation"
)

// ContractType is the billing term of a contract.
type ContractType int

const (
	MonthToMonth ContractType = iota
	OneYear
	TwoYear
)

var contractTypeNames = common.EnumStringMap{
	int(MonthToMonth): "Month-to-month",
	int(OneYear):      "One year",
	int(TwoYear):      "Two year",
}

func (c ContractType) String() string {
	return common.FormatEnum(int(c), contractTypeNames)
}

// ParseContractType reads the raw type label, ignoring case.
func ParseContractType(s string) (ContractType, bool) {
	v, ok := common.ParseEnum(s, contractTypeNames)
	return ContractType(v), ok
}

// ContractRecord is one parsed contract row.
type ContractRecord struct {
	CustomerID     string
	Type           ContractType
	Begin          time.Time
	ObservedEnd    time.Time
	HasObservedEnd bool
}

// DefaultParallelThreshold is the row count from which contract rows are
// processed on the worker pool.
const DefaultParallelThreshold = 1000

// ContractOptions configures CleanContract.
type ContractOptions struct {
	Resolver Resolver
	// Horizon caps active days; zero means DefaultHorizon.
	Horizon time.Time
	// ParallelThreshold below which rows are processed sequentially; zero
	// means DefaultParallelThreshold.
	ParallelThreshold int
	// Workers for the parallel path; zero means one per CPU.
	Workers int
}

type contractRow struct {
	record     ContractRecord
	end        EndDate
	activeDays int64
	total      float64
	totalOK    bool
	monthly    float64
	monthlyOK  bool
	beginOK    bool
	endOK      bool
	badEndCell bool
}

// CleanContract parses the contract table: it resolves every end date,
// derives begin/end month and year, is_active and active_days, coerces the
// charge columns to numbers and encodes paperless_billing. The raw date
// columns are dropped. Rows and their order are unchanged. A row whose begin
// date cannot be parsed is kept with its begin-derived cells missing.
func CleanContract(
	ctx context.Context, df *dataframe.DataFrame, opts ContractOptions,
) (*dataframe.DataFrame, CleaningReport, error) {
	const op = "CleanContract"
	report := newReport(TableContract, df.Len())

	if err := validation.ValidateColumns(df, op,
		ColCustomerID, ColBeginDate, ColEndDate, ColType, ColPaperlessBilling, ColTotalCharges,
	); err != nil {
		return nil, report, err
	}

	horizon := opts.Horizon
	if horizon.IsZero() {
		horizon = DefaultHorizon
	}
	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}

	ids, _ := df.Column(ColCustomerID)
	begins, _ := df.Column(ColBeginDate)
	ends, _ := df.Column(ColEndDate)
	types, _ := df.Column(ColType)
	totals, _ := df.Column(ColTotalCharges)
	monthlies, hasMonthly := df.Column(ColMonthlyCharges)

	parseRow := func(i int) (contractRow, error) {
		var row contractRow
		rec := ContractRecord{CustomerID: ids.GetAsString(i)}

		ctype, ok := ParseContractType(types.GetAsString(i))
		if !ok {
			return row, errors.NewValidationError(op, ColType,
				fmt.Sprintf("customer %s: unknown contract type %q", rec.CustomerID, types.GetAsString(i)))
		}
		rec.Type = ctype

		rawEnd := ends.GetAsString(i)
		rec.ObservedEnd, rec.HasObservedEnd = dates.Parse(rawEnd)
		row.badEndCell = !rec.HasObservedEnd && !ends.IsNull(i) && !isNoEndMarker(rawEnd)

		row.total, row.totalOK = common.ParseFloat(totals.GetAsString(i))
		if hasMonthly {
			row.monthly, row.monthlyOK = common.ParseFloat(monthlies.GetAsString(i))
		}

		// without a begin date only an observed end survives; the derived
		// cells stay missing for the merge to fill
		rec.Begin, row.beginOK = dates.Parse(begins.GetAsString(i))
		row.record = rec
		if !row.beginOK {
			if rec.HasObservedEnd {
				row.end = EndDate{Date: rec.ObservedEnd, Rule: RuleObserved}
				row.endOK = true
			}
			return row, nil
		}

		end, err := opts.Resolver.Resolve(rec)
		if err != nil {
			return row, err
		}
		row.end = end
		row.endOK = true
		row.activeDays = ActiveDays(rec.Begin, end, horizon)
		return row, nil
	}

	var (
		rows []contractRow
		err  error
	)
	if df.Len() >= threshold {
		pool := parallel.NewWorkerPool(ctx, opts.Workers)
		rows, err = parallel.MapRows(pool, df.Len(), parseRow)
		pool.Close()
	} else {
		rows = make([]contractRow, df.Len())
		for i := range rows {
			if err = ctx.Err(); err != nil {
				break
			}
			if rows[i], err = parseRow(i); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, report, err
	}

	out, err := buildContractColumns(df, rows, hasMonthly, &report)
	if err != nil {
		return nil, report, err
	}

	out, err = EncodeBinary(out, op, BinaryColumn{Name: ColPaperlessBilling})
	if err != nil {
		return nil, report, err
	}
	report.Encoded = append(report.Encoded, ColPaperlessBilling)

	return out.Drop(ColBeginDate, ColEndDate), report, nil
}

// isNoEndMarker reports the literal the raw data uses for "still active".
func isNoEndMarker(s string) bool {
	return s == "" || s == "No"
}

func buildContractColumns(
	df *dataframe.DataFrame, rows []contractRow, hasMonthly bool, report *CleaningReport,
) (*dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()
	n := len(rows)

	beginMonth := make([]int64, n)
	beginYear := make([]int64, n)
	beginValid := make([]bool, n)
	endMonth := make([]int64, n)
	endYear := make([]int64, n)
	endValid := make([]bool, n)
	active := make([]bool, n)
	activeDays := make([]int64, n)
	totals := make([]float64, n)
	monthly := make([]float64, n)
	monthlyValid := make([]bool, n)

	for i, row := range rows {
		active[i] = !row.record.HasObservedEnd
		if row.beginOK {
			beginMonth[i] = int64(row.record.Begin.Month())
			beginYear[i] = int64(row.record.Begin.Year())
			beginValid[i] = true
			activeDays[i] = row.activeDays
		} else {
			report.Coerced[ColBeginDate]++
		}
		if row.endOK {
			endMonth[i] = int64(row.end.Date.Month())
			endYear[i] = int64(row.end.Date.Year())
			endValid[i] = true
			report.Resolved[row.end.Rule]++
		}

		if row.badEndCell {
			report.Coerced[ColEndDate]++
		}
		// a blank total belongs to a customer who has not been billed yet
		if row.totalOK {
			totals[i] = row.total
		} else {
			report.Coerced[ColTotalCharges]++
		}
		if hasMonthly {
			monthly[i], monthlyValid[i] = row.monthly, row.monthlyOK
			if !row.monthlyOK {
				report.Coerced[ColMonthlyCharges]++
			}
		}
	}

	out := df.WithColumn(series.New(ColTotalCharges, totals, mem))
	if hasMonthly {
		s, err := series.NewNullable(ColMonthlyCharges, monthly, monthlyValid, mem)
		if err != nil {
			return nil, err
		}
		out = out.WithColumn(s)
	}

	derived := []struct {
		name   string
		values []int64
		valid  []bool
	}{
		{ColBeginMonth, beginMonth, beginValid},
		{ColBeginYear, beginYear, beginValid},
		{ColEndMonth, endMonth, endValid},
		{ColEndYear, endYear, endValid},
	}
	for _, d := range derived {
		s, err := series.NewNullable(d.name, d.values, d.valid, mem)
		if err != nil {
			return nil, err
		}
		out = out.WithColumn(s)
	}

	days, err := series.NewNullable(ColActiveDays, activeDays, beginValid, mem)
	if err != nil {
		return nil, err
	}
	return out.
		WithColumn(series.New(ColIsActive, active, mem)).
		WithColumn(days), nil
}
