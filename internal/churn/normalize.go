package churn

import (
	"github.com/paveg/churnprep/internal/common"
	"github.com/paveg/churnprep/internal/dataframe"
)

// NormalizeColumns renames every column to snake case. Rows and column order
// are unchanged; two raw names collapsing to one is an error.
func NormalizeColumns(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	return df.RenameWith(common.ToSnakeCase)
}
