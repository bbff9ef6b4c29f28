package churn

import (
	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/validation"
)

// FalseString is the text image of false used when filling string columns.
const FalseString = "False"

// Merge full-outer-joins the cleaned tables on customer_id in the order
// (contract, personal), internet, phone. Every customer appears once, and any
// cell left empty because a table had no row for that customer is filled with
// false (0 for numbers, "False" for text).
func Merge(contract, personal, internet, phone *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	const op = "Merge"
	for _, df := range []*dataframe.DataFrame{contract, personal, internet, phone} {
		if err := validation.ValidateColumns(df, op, ColCustomerID); err != nil {
			return nil, err
		}
	}

	opts := &dataframe.JoinOptions{
		Type:     dataframe.FullOuterJoin,
		LeftKey:  ColCustomerID,
		RightKey: ColCustomerID,
	}

	merged := contract
	for _, next := range []*dataframe.DataFrame{personal, internet, phone} {
		var err error
		merged, err = merged.Join(next, opts)
		if err != nil {
			return nil, err
		}
	}

	return merged.FillNulls(FalseString)
}
