package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/deviceclean/internal/core"
	"github.com/JonMunkholm/deviceclean/internal/logging"
	"github.com/JonMunkholm/deviceclean/internal/report"
	"github.com/JonMunkholm/deviceclean/internal/sample"
)

func (a *App) inspectCommand() *cobra.Command {
	var planOut string

	cmd := &cobra.Command{
		Use:   "inspect FILES...",
		Short: "Show how the columns of the given files map onto the device schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			columns := sess.Live().Columns
			suggested := core.SuggestMapping(columns)

			fmt.Fprintf(a.out, "%d rows, %d columns from %d files\n\n", sess.Live().Len(), len(columns), len(args))
			if err := report.WriteColumns(a.out, core.InspectColumns(columns), suggested); err != nil {
				return err
			}

			if planOut == "" {
				return nil
			}
			starter := core.Plan{
				Mapping:             suggested,
				ApplySuggestions:    true,
				NormalizeCategories: true,
			}
			return a.writeFile(planOut, func(w io.Writer) error {
				return core.WritePlan(w, starter)
			})
		},
	}
	cmd.Flags().StringVar(&planOut, "plan-out", "", "write a starter plan with the suggested mapping to this file")
	return cmd
}

func (a *App) checkCommand() *cobra.Command {
	var (
		planPath string
		htmlPath string
		problems string
		format   string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "check FILES...",
		Short: "Report invalid cells and the rows that need manual review",
		Long: `check maps the columns (with the suggested mapping, or the plan given by
--plan), runs every column checker and prints a summary with the rows that
cannot be fixed automatically. A plan is applied to a scratch session only;
nothing is written except the requested reports.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			plan := core.Plan{SuggestMapping: true}
			if planPath != "" {
				if plan, err = readPlanFile(planPath); err != nil {
					return err
				}
			}

			sess, err := a.openSession(ctx, args)
			if err != nil {
				return err
			}
			checkers := a.checkers()
			if _, err := a.applyPlan(ctx, sess, plan, checkers); err != nil {
				return err
			}

			opts := core.AggregateOptions{Checkers: checkers}
			if progress || (!cmd.Flags().Changed("progress") && isTerminal(a.errOut)) {
				bar := newProgressBar(a.errOut, "check", len(checkers))
				opts.Progress = bar.Update
				defer bar.Stop()
			}
			rep := sess.Check(ctx, opts)
			doc := report.NewDocument(sess, rep)

			if err := report.Write(a.out, f, doc, sess.Live()); err != nil {
				return err
			}
			if htmlPath != "" {
				page := report.Page{Generated: time.Now(), Doc: doc, Live: sess.Live()}
				if err := a.writeFile(htmlPath, func(w io.Writer) error {
					return report.WriteHTML(ctx, w, page)
				}); err != nil {
					return err
				}
			}
			if problems != "" {
				exp, err := a.exportOptions("")
				if err != nil {
					return err
				}
				if err := a.writeTable(problems, core.ProblemRows(sess.Live(), rep), exp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&planPath, "plan", "", "resolution plan to apply before checking")
	flags.StringVar(&htmlPath, "html", "", "write an HTML report to this file")
	flags.StringVar(&problems, "problems", "", "write the rows needing manual review to this file (csv, tsv or xlsx)")
	flags.StringVarP(&format, "format", "o", "table", "output format: table or yaml")
	flags.BoolVar(&progress, "progress", false, "show a progress bar (default when stderr is a terminal)")
	return cmd
}

func (a *App) cleanCommand() *cobra.Command {
	var (
		planPath string
		out      string
		ignored  string
		auto     bool
		rowID    string
	)

	cmd := &cobra.Command{
		Use:   "clean FILES...",
		Short: "Apply a resolution plan and write the cleaned and ignored tables",
		Long: `clean applies the column mapping, the automatic suggestions and the plan
resolutions (replace_all, replace_bulk, edit, ignore, ignore_remaining) and
exports the live table to --out and the ignored rows to --ignored.

--auto applies the suggested mapping, every suggestion and category case
normalization, on top of --plan if one is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if planPath == "" && !auto {
				return errors.New("clean needs --plan or --auto")
			}
			var plan core.Plan
			if planPath != "" {
				var err error
				if plan, err = readPlanFile(planPath); err != nil {
					return err
				}
			}
			if auto {
				plan.SuggestMapping = true
				plan.ApplySuggestions = true
				plan.NormalizeCategories = true
			}
			exp, err := a.exportOptions(rowID)
			if err != nil {
				return err
			}

			sess, err := a.openSession(ctx, args)
			if err != nil {
				return err
			}
			res, err := a.applyPlan(ctx, sess, plan, a.checkers())
			if err != nil {
				return err
			}

			if err := a.writeTable(out, sess.Live(), exp); err != nil {
				return err
			}
			if ignored != "" {
				if err := a.writeTable(ignored, sess.Ignored(), exp); err != nil {
					return err
				}
			}

			w := a.out
			if out == "-" {
				w = a.errOut
			}
			fmt.Fprintf(w, "Applied %d suggestions, normalized %d categories, changed %d cells, ignored %d rows.\n\n",
				res.SuggestionsApplied, res.CategoriesNormalized, res.CellsChanged, res.RowsIgnored)
			if err := report.WriteHistory(w, sess.History().Entries()); err != nil {
				return err
			}
			if res.Final.Clean() {
				fmt.Fprintf(w, "\nAll %d live rows pass validation.\n", sess.Live().Len())
				return nil
			}
			fmt.Fprintf(w, "\nRows still needing manual attention: %d\n", len(res.Final.Manual))
			return report.WriteManualRows(w, sess.Live(), res.Final.Manual, report.DefaultManualLimit)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&planPath, "plan", "", "resolution plan (YAML)")
	flags.StringVar(&out, "out", "", "file for the cleaned table (csv, tsv or xlsx; - for stdout)")
	flags.StringVar(&ignored, "ignored", "", "file for the ignored rows")
	flags.BoolVar(&auto, "auto", false, "apply the suggested mapping, suggestions and category normalization")
	flags.StringVar(&rowID, "with-row-id", "", "add a leading column with this name holding each row's identity")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// applyPlan runs plan against sess. Steps that reference rows no longer in
// the live table are logged and skipped; any other error stops the run.
func (a *App) applyPlan(ctx context.Context, sess *core.Session, plan core.Plan, checkers []core.Checker) (*core.PlanResult, error) {
	res, err := sess.ApplyPlan(ctx, plan, core.AggregateOptions{Checkers: checkers})
	if res == nil {
		return nil, err
	}
	if err != nil {
		logging.FromContext(ctx).Warn("plan steps skipped",
			"rows", core.UnknownRows(err),
			"error", err,
		)
	}
	return res, nil
}

func (a *App) sampleCommand() *cobra.Command {
	var (
		rows   int
		seed   int64
		rate   float64
		out    string
		counts bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a messy device inventory for trying out the other commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rows < 0 {
				return fmt.Errorf("--rows must not be negative, got %d", rows)
			}
			if rate < 0 || rate > 1 {
				return fmt.Errorf("--defect-rate must be between 0 and 1, got %g", rate)
			}
			t, injected := sample.Generate(sample.Options{Rows: rows, Seed: seed, DefectRate: rate})

			// Written as generated: readable dates stay unconverted.
			exp := core.ExportOptions{Sheet: a.cfg.Export.Sheet}
			if err := a.writeTable(out, t, exp); err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("sample written",
				"rows", t.Len(), "defects", len(injected), "seed", seed, "out", out)

			if counts && out != "-" {
				byDefect := make(map[sample.Defect]int)
				for _, in := range injected {
					byDefect[in.Defect]++
				}
				fmt.Fprintf(a.out, "%d rows, %d with defects\n", t.Len(), len(injected))
				for _, d := range sample.AllDefects {
					if byDefect[d] > 0 {
						fmt.Fprintf(a.out, "  %-22s %d\n", d, byDefect[d])
					}
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&rows, "rows", 100, "number of rows")
	flags.Int64Var(&seed, "seed", 1, "random seed; the same seed gives the same file")
	flags.Float64Var(&rate, "defect-rate", 0.2, "share of rows with an injected defect")
	flags.StringVar(&out, "out", "-", "output file (csv, tsv or xlsx; - for stdout)")
	flags.BoolVar(&counts, "counts", true, "print the injected defect counts")
	return cmd
}
