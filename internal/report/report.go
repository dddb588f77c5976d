// Package report renders an analysis as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rewired-gh/solarscope/internal/models"
	"github.com/rewired-gh/solarscope/internal/schema"
	"github.com/rewired-gh/solarscope/internal/timeindex"
)

// barWidth is the length of the longest histogram bar.
const barWidth = 40

// Render writes every section of a to w.
func Render(w io.Writer, a *models.Analysis, source string) error {
	ew := &errWriter{w: w}

	ew.printf("%s\n", strings.Repeat("=", 80))
	ew.printf("SOLAR IRRADIANCE ANALYSIS\n")
	ew.printf("%s\n", strings.Repeat("=", 80))
	if source != "" {
		ew.printf("Source: %s\n", source)
	}
	ew.printf("Window: %s\n", a.Window)
	ew.printf("Rows:   %d\n", a.Summary.Rows)

	renderSummary(ew, a.Summary)
	renderMissing(ew, a.Summary.Missing)
	renderCorrelation(ew, a.Summary.Correlation)
	renderOutliers(ew, a.Outliers)
	renderQuantiles(ew, a.Quantiles)
	renderCleaning(ew, a.Cleaning)
	for _, h := range a.Histograms {
		renderHistogram(ew, h)
	}
	return ew.err
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) table(write func(tw *tabwriter.Writer)) {
	if e.err != nil {
		return
	}
	tw := tabwriter.NewWriter(e.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	write(tw)
	e.err = tw.Flush()
}

func section(ew *errWriter, title string) {
	ew.printf("\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderSummary(ew *errWriter, s models.Summary) {
	section(ew, "Descriptive statistics")
	if len(s.Columns) == 0 {
		ew.printf("(no numeric columns)\n")
		return
	}
	ew.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, c := range s.Columns {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				c.Column, c.Count, num(c.Mean), num(c.Std), num(c.Min),
				num(c.P25), num(c.P50), num(c.P75), num(c.Max))
		}
	})
}

func renderMissing(ew *errWriter, missing []models.MissingCount) {
	section(ew, "Missing readings")
	ew.table(func(tw *tabwriter.Writer) {
		for _, m := range missing {
			fmt.Fprintf(tw, "%s\t%d\t\n", m.Column, m.Missing)
		}
	})
}

func renderCorrelation(ew *errWriter, m models.CorrelationMatrix) {
	section(ew, "Correlation (Pearson)")
	if len(m.Columns) == 0 {
		ew.printf("(no columns)\n")
		return
	}
	ew.table(func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(m.Columns, "\t"))
		for i, row := range m.Cells {
			cells := make([]string, len(row))
			for j, c := range row {
				if c.Defined {
					cells[j] = num(c.Value)
				} else {
					cells[j] = "n/a"
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", m.Columns[i], strings.Join(cells, "\t"))
		}
	})
}

func renderOutliers(ew *errWriter, o models.OutlierSet) {
	section(ew, fmt.Sprintf("Outliers (|z| > %.1f)", o.Threshold))
	ew.printf("Tracked: %s\n", strings.Join(o.Columns, ", "))
	if len(o.Undefined) > 0 {
		ew.printf("Undefined z-score: %s\n", strings.Join(o.Undefined, ", "))
	}
	ew.printf("Flagged rows: %d\n", o.Count)
	for _, f := range o.Rows {
		parts := make([]string, 0, len(f.Triggers))
		for _, z := range f.Triggers {
			parts = append(parts, fmt.Sprintf("%s=%s (z=%.2f)", z.Column, num(z.Value), z.Z))
		}
		ew.printf("  line %d  %s  %s\n", f.Row.Line,
			f.Row.Timestamp.Format(timeindex.DefaultLayout), strings.Join(parts, ", "))
	}
}

func renderQuantiles(ew *errWriter, q []models.QuantileBounds) {
	if len(q) == 0 {
		return
	}
	section(ew, "Quantile bounds")
	ew.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "column\tlow\thigh\t")
		for _, b := range q {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Column, num(b.Low), num(b.High))
		}
	})
}

func renderCleaning(ew *errWriter, groups []models.CleaningGroup) {
	if len(groups) == 0 {
		return
	}
	section(ew, "Cleaning impact")
	ew.table(func(tw *tabwriter.Writer) {
		for _, g := range groups {
			cols := make([]string, 0, len(g.Means))
			for _, col := range schema.CleaningColumns {
				if v, ok := g.Means[col]; ok {
					cols = append(cols, fmt.Sprintf("%s=%s", col, num(v)))
				}
			}
			fmt.Fprintf(tw, "state %s\trows %d\t%s\t\n",
				strconv.FormatFloat(g.State, 'g', -1, 64), g.Rows, strings.Join(cols, "  "))
		}
	})
}

func renderHistogram(ew *errWriter, h models.Histogram) {
	section(ew, "Histogram: "+h.Column)
	peak := 0
	for _, c := range h.Counts {
		if c > peak {
			peak = c
		}
	}
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = c * barWidth / peak
		}
		ew.printf("%10s .. %-10s %6d %s\n",
			num(h.Edges[i]), num(h.Edges[i+1]), c, strings.Repeat("#", bar))
	}
}
