package churn

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CleaningReport summarizes what a cleaner did to one table.
type CleaningReport struct {
	Table   Table
	Rows    int
	Encoded []string
	// Coerced counts cells per column that could not be parsed and were
	// treated as missing (dates) or zero (charges).
	Coerced map[string]int
	// Resolved counts contract end dates by the rule that produced them.
	Resolved map[ExpiryRule]int
}

func newReport(table Table, rows int) CleaningReport {
	return CleaningReport{
		Table:    table,
		Rows:     rows,
		Coerced:  make(map[string]int),
		Resolved: make(map[ExpiryRule]int),
	}
}

// MarshalLogObject lets a report be logged with zap.Object.
func (r CleaningReport) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("table", string(r.Table))
	enc.AddInt("rows", r.Rows)
	if len(r.Encoded) > 0 {
		_ = enc.AddArray("encoded", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
			for _, name := range r.Encoded {
				arr.AppendString(name)
			}
			return nil
		}))
	}
	for col, n := range r.Coerced {
		enc.AddInt("coerced."+col, n)
	}
	for rule, n := range r.Resolved {
		enc.AddInt("resolved."+rule.String(), n)
	}
	return nil
}

// Field returns the report as a zap field.
func (r CleaningReport) Field() zap.Field {
	return zap.Object("report", r)
}
