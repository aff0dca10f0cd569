// Command catalogctl validates Taekwon-Do content documents before they
// ship. It checks a content directory (or the catalogue embedded in the
// binary) against the JSON Schemas and the cross-document invariants, then
// prints per-belt item counts. It exits non-zero when the content is
// invalid, so it slots into content-repo CI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/tkdojang/dojang-api/internal/catalog"
)

func main() {
	dir := flag.String("dir", "",
		"content directory to validate (defaults to the embedded catalogue)")
	flag.Parse()

	if err := run(*dir, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "catalogue invalid: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, out io.Writer) error {
	source := "embedded catalogue"
	load := catalog.Load
	if dir != "" {
		source = dir
		load = func() (*catalog.Catalog, error) { return catalog.LoadDir(dir) }
	}

	cat, err := load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s is valid: %d belts, %d terminology, %d patterns, %d step sparring\n\n",
		source,
		len(cat.Belts()),
		len(cat.Terminology()),
		len(cat.Patterns()),
		len(cat.Sequences()))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tBELT\tTERMINOLOGY\tPATTERNS\tSTEP SPARRING")
	for _, belt := range cat.Belts() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n",
			belt.Rank,
			belt.Name,
			len(cat.TerminologyByBeltRank(belt.Rank)),
			len(cat.PatternsByBeltRank(belt.Rank)),
			len(cat.SequencesByBeltRank(belt.Rank)))
	}
	return w.Flush()
}
