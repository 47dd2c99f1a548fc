package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/tanq16/ytpull/internal/input"
)

// PrintSummary writes the end-of-run report: counts, each failure with its
// reason, rejected input and where the files went.
func PrintSummary(w io.Writer, results *Results, rejected []input.Rejected, root string) {
	sorted := results.Sorted()
	succeeded, failed := results.Succeeded(), results.Failed()
	fmt.Fprintln(w)
	fmt.Fprintln(w, indent(2)+headerStyle.Render("Summary"))
	fmt.Fprintln(w, indent(2)+totalStyle.Render(fmt.Sprintf("Completed %d of %d", succeeded, len(sorted))))
	if failed > 0 {
		fmt.Fprintln(w, indent(2)+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failed, len(sorted))))
		for _, res := range sorted {
			if res.Success {
				continue
			}
			fmt.Fprintf(w, "%s%s %s\n", indent(4), errorStyle.Render(StyleSymbols["fail"]), res.URL)
			fmt.Fprintf(w, "%s%s\n", indent(6), debugStyle.Render(res.Reason()))
		}
	}
	for _, res := range sorted {
		if res.Success && res.Skipped > 0 {
			fmt.Fprintf(w, "%s%s %s %s\n", indent(4), warningStyle.Render(StyleSymbols["warning"]), res.URL,
				debugStyle.Render(fmt.Sprintf("(%d entr(y/ies) could not be downloaded)", res.Skipped)))
		}
	}
	if len(rejected) > 0 {
		fmt.Fprintln(w, indent(2)+warningStyle.Render(fmt.Sprintf("Skipped %d invalid input(s)", len(rejected))))
		for _, rej := range rejected {
			fmt.Fprintf(w, "%s%s %s %s\n", indent(4), warningStyle.Render(StyleSymbols["warning"]), rej.Token, debugStyle.Render("("+rej.Reason+")"))
		}
	}
	if succeeded > 0 {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		fmt.Fprintln(w, indent(2)+infoStyle.Render("All files saved to "+root))
	}
	fmt.Fprintln(w)
}
