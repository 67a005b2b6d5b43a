package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meisai-dev/meisai/internal/importer"
	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/model"
	"github.com/meisai-dev/meisai/internal/period"
	"github.com/meisai-dev/meisai/internal/runlog"
)

type convertOptions struct {
	month   string
	out     string
	rules   string
	format  string
	dir     string
	archive bool
}

func newConvertCommand(a *app) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert [csv...]",
		Short: "Classify bank CSV exports and write one CSV per month",
		Long: `Convert reads one or more bank statement CSV files, classifies every
transaction, and writes meisai_YYYY-MM.csv files with the carry-forward
balance, running balance, subject and label of each row.

Without file arguments the configured import directory is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir == "" && len(args) == 0 {
				opts.dir = a.cfg.Import.Dir
			}
			if !cmd.Flags().Changed("archive") {
				opts.archive = a.cfg.Import.Archive && opts.dir != ""
			}
			return runConvert(a, cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.month, "month", "", "only write this month (YYYY-MM)")
	cmd.Flags().StringVar(&opts.out, "out", ".", "output directory")
	cmd.Flags().StringVar(&opts.rules, "rules", "", "rule book YAML (default: configured or built-in)")
	cmd.Flags().StringVar(&opts.format, "format", "bank", "input format")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "import directory to scan for *.csv")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "move scanned files to <dir>/processed after a successful run")

	return cmd
}

func runConvert(a *app, w io.Writer, paths []string, opts convertOptions) error {
	if opts.month != "" {
		if _, _, err := period.Parse(opts.month); err != nil {
			return err
		}
	}

	c, err := a.classifier(opts.rules)
	if err != nil {
		return err
	}

	reg := importer.NewRegistry()
	reg.Register(importer.NewBankParser(c, a.log))
	parser := reg.Get(opts.format)
	if parser == nil {
		return fmt.Errorf("unknown format %q (available: %s)", opts.format, strings.Join(reg.Formats(), ", "))
	}

	var scanned []importer.FileInfo
	if opts.dir != "" {
		scanned, err = importer.Scan(opts.dir)
		if err != nil {
			return err
		}
		for _, f := range scanned {
			paths = append(paths, f.Path)
		}
	}
	if len(paths) == 0 {
		return errors.New("no CSV files to convert")
	}

	perFile := make([][]model.Record, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			recs, err := importer.ParseFile(parser, p)
			if err != nil {
				return err
			}
			a.log.Info("parsed statement", "file", filepath.Base(p), "records", len(recs))
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var records []model.Record
	for _, recs := range perFile {
		records = append(records, recs...)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

	l := ledger.New(records)
	for _, verr := range l.Validate() {
		a.log.Warn("ledger check failed", "error", verr)
	}

	buckets := l.Buckets
	if opts.month != "" {
		b := l.ForKey(opts.month)
		if b == nil {
			return fmt.Errorf("no records for month %q", opts.month)
		}
		buckets = []ledger.Bucket{*b}
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	sources := make([]string, len(paths))
	for i, p := range paths {
		sources[i] = filepath.Base(p)
	}
	now := time.Now().UTC()
	var entries []runlog.Entry

	history, err := runlog.Read(opts.out)
	if err != nil {
		a.log.Warn("ignoring unreadable run log", "error", err)
	}
	lastClosing := make(map[string]int64, len(history))
	for _, e := range history {
		lastClosing[e.Month] = e.Closing
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tRECORDS\tOPENING\tIN\tOUT\tCLOSING\tFILE")
	for i := range buckets {
		b := &buckets[i]
		for _, m := range ledger.Reconcile(b) {
			a.log.Warn("printed balance differs from derived balance",
				"month", b.Key(), "row", m.Row, "date", m.Date, "printed", m.Printed, "derived", m.Derived)
		}
		if prev, ok := lastClosing[b.Key()]; ok && prev != b.Closing() {
			a.log.Warn("closing balance changed since the last conversion",
				"month", b.Key(), "previous", prev, "closing", b.Closing())
		}

		path := filepath.Join(opts.out, ledger.FileName(b))
		if err := writeMonthFile(path, b); err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			b.Key(), len(b.Records), b.Opening, b.In(), b.Out(), b.Closing(), path)
		entries = append(entries, runlog.Entry{
			Timestamp: now,
			Month:     b.Key(),
			Records:   len(b.Records),
			In:        b.In(),
			Out:       b.Out(),
			Closing:   b.Closing(),
			Output:    path,
			Sources:   strings.Join(sources, ", "),
		})
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if err := runlog.Append(opts.out, entries); err != nil {
		return err
	}

	if opts.archive {
		for _, f := range scanned {
			if err := importer.MarkProcessed(opts.dir, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeMonthFile writes b to path, prefixed with ledger.BOM.
func writeMonthFile(path string, b *ledger.Bucket) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(ledger.BOM); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := ledger.WriteMonth(bw, b); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
