package common

import (
	"fmt"
	"io"

	"github.com/jonesrussell/bidcrawl/internal/domain"
)

// PrintResult writes the run summary in the fixed operator-facing format.
func PrintResult(w io.Writer, result *domain.WorkflowResult) {
	status := "SUCCESS"
	if !result.Success {
		status = "FAILED"
	}

	fmt.Fprintf(w, "Result: %s\n", status)
	fmt.Fprintf(w, "Organizations: %d  Scraped: %d  New: %d  Inserted: %d\n",
		result.Organizations, result.ScrapedCount, result.NewCount, result.InsertedCount)

	if result.ErrorMessage != "" {
		fmt.Fprintf(w, "Error: [%s] %s\n", result.ErrorCode.String(), result.ErrorMessage)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
