package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

// Page is the data behind the HTML report.
type Page struct {
	Title     string
	Generated time.Time
	Doc       Document
	Live      *core.Table
	Limit     int // Manual rows shown; zero shows all
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
table{border-collapse:collapse;margin:1rem 0}
th,td{border:1px solid #cbd2d9;padding:.3rem .6rem;text-align:left;vertical-align:top}
th{background:#f5f7fa}
.num{text-align:right}
.kind{font-family:monospace}`

// HTML returns the report page as a templ component.
func HTML(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := p.Title
		if title == "" {
			title = "Device inventory report"
		}
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		fmt.Fprintf(w, "<h1>%s</h1>", templ.EscapeString(title))
		if !p.Generated.IsZero() {
			fmt.Fprintf(w, "<p>Generated %s", templ.EscapeString(p.Generated.Format(time.RFC1123)))
			if len(p.Doc.Sources) > 0 {
				fmt.Fprintf(w, " from %d source(s)", len(p.Doc.Sources))
			}
			io.WriteString(w, "</p>")
		}

		for _, c := range []templ.Component{
			summarySection(p.Doc.Summary),
			columnSection(p.Doc.Summary),
			manualSection(p),
		} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

func summarySection(s core.Summary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		io.WriteString(w, "<h2>Summary</h2><table>")
		rows := [][2]string{
			{"Rows", fmt.Sprint(s.TotalRows)},
			{"Rows with issues", fmt.Sprintf("%d (%.1f%%)", s.RowsWithIssues, s.PercentWithIssue)},
			{"Auto-correctable issues", fmt.Sprint(s.AutoCorrectable)},
			{"Manual issues", fmt.Sprint(s.ManualIssues)},
			{"Rows needing manual fix", fmt.Sprint(s.ManualRows)},
		}
		for _, k := range kindOrder(s.ByKind) {
			rows = append(rows, [2]string{string(k), fmt.Sprint(s.ByKind[k])})
		}
		for _, r := range rows {
			fmt.Fprintf(w, "<tr><th>%s</th><td class=\"num\">%s</td></tr>", templ.EscapeString(r[0]), templ.EscapeString(r[1]))
		}
		_, err := io.WriteString(w, "</table>")
		return err
	})
}

func columnSection(s core.Summary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(s.ByColumn) == 0 {
			return nil
		}
		io.WriteString(w, "<h2>Issues by column</h2><table><tr><th>Column</th><th>Kind</th><th>Count</th></tr>")
		for _, c := range s.ByColumn {
			fmt.Fprintf(w, "<tr><td>%s</td><td class=\"kind\">%s</td><td class=\"num\">%d</td></tr>",
				templ.EscapeString(c.Column), templ.EscapeString(string(c.Kind)), c.Count)
		}
		_, err := io.WriteString(w, "</table>")
		return err
	})
}

func manualSection(p Page) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		manual := p.Doc.Manual
		if len(manual) == 0 {
			_, err := io.WriteString(w, "<h2>Manual review</h2><p>No rows need manual attention.</p>")
			return err
		}
		fmt.Fprintf(w, "<h2>Manual review (%d rows)</h2><table><tr><th>Row</th>", len(manual))
		for _, c := range core.RequiredColumns() {
			fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(c))
		}
		io.WriteString(w, "<th>Issues</th></tr>")

		shown := manual
		if p.Limit > 0 && len(shown) > p.Limit {
			shown = shown[:p.Limit]
		}
		for _, ri := range shown {
			fmt.Fprintf(w, "<tr><td class=\"num\">%d</td>", int(ri.Row))
			var row *core.Row
			if p.Live != nil {
				row, _ = p.Live.Row(ri.Row)
			}
			for _, c := range core.RequiredColumns() {
				fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(row.Get(c).String()))
			}
			fmt.Fprintf(w, "<td>%s</td></tr>", templ.EscapeString(ri.Detail))
		}
		io.WriteString(w, "</table>")
		if len(shown) < len(manual) {
			fmt.Fprintf(w, "<p>%d more rows not shown.</p>", len(manual)-len(shown))
		}
		return nil
	})
}

// WriteHTML renders the page to w.
func WriteHTML(ctx context.Context, w io.Writer, p Page) error {
	return HTML(p).Render(ctx, w)
}
