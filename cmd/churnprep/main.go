// Command churnprep cleans the telecom churn tables and prepares them for
// modeling.
//
//	churnprep preprocess --config churnprep.yaml
//	churnprep prepare --config churnprep.yaml
//	churnprep evaluate --config churnprep.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		// errors raised before the logger exists are printed plainly
		if !errors.As(err, new(loggedError)) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
