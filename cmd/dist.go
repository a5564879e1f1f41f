// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/will-rowe/jam/src/codec"
	"github.com/will-rowe/jam/src/compare"
	"github.com/will-rowe/jam/src/jamutil"
	"github.com/will-rowe/jam/src/report"
	"github.com/will-rowe/jam/src/sketch"
)

// the command line arguments
var (
	distQuery     *string   // query sketch file
	distDatabases *[]string // reference sketch file(s)
	distOut       *string   // output file (stdout if unset)
	distCutoff    *float64  // minimum containment to report
	distStats     *bool     // carried through for symmetry with sketch --stats; dist itself only reads stats
	distGCLower   *uint8    // lower GC-percent gate bound
	distGCUpper   *uint8    // upper GC-percent gate bound
	distPanel     *string   // optional GFA reference panel to annotate hits against
	distHistogram *string   // optional containment histogram PNG
	distForce     *bool     // overwrite existing output
)

// the dist command (used by cobra)
var distCmd = &cobra.Command{
	Use:   "dist",
	Short: "estimate containment between a query database and one or more reference databases",
	Long:  `dist compares every record in the query sketch against every record in the reference database(s) and reports estimated containment`,
	Run: func(cmd *cobra.Command, args []string) {
		runDist(cmd)
	},
}

func init() {
	RootCmd.AddCommand(distCmd)
	distQuery = distCmd.Flags().StringP("input", "i", "", "query sketch file")
	distDatabases = distCmd.Flags().StringArrayP("database", "d", nil, "reference sketch file(s)")
	distOut = distCmd.Flags().StringP("output", "o", "", "output file (defaults to stdout)")
	distCutoff = distCmd.Flags().Float64P("cutoff", "c", 0.0, "minimum containment fraction to report")
	distStats = distCmd.Flags().Bool("stats", false, "accepted for symmetry with sketch --stats; has no effect (the GC gate reads stats whenever a record carries them)")
	distGCLower = distCmd.Flags().Uint8("gc-lower", 0, "lower bound of the GC-percent gate (requires --gc-upper)")
	distGCUpper = distCmd.Flags().Uint8("gc-upper", 0, "upper bound of the GC-percent gate (requires --gc-lower)")
	distPanel = distCmd.Flags().String("panel", "", "optional GFA reference panel to annotate hits against")
	distHistogram = distCmd.Flags().String("histogram", "", "optional containment histogram PNG")
	distForce = distCmd.Flags().BoolP("force", "f", false, "overwrite the output file if it already exists")
}

func distParamCheck(cmd *cobra.Command) (compare.Config, error) {
	cfg := compare.Config{Cutoff: *distCutoff, NumWorkers: *proc}
	if *distQuery == "" {
		return cfg, fmt.Errorf("no query sketch specified (-i)")
	}
	if err := jamutil.CheckFile(*distQuery); err != nil {
		return cfg, err
	}
	if len(*distDatabases) == 0 {
		return cfg, fmt.Errorf("no reference database specified (-d)")
	}
	for _, db := range *distDatabases {
		if err := jamutil.CheckFile(db); err != nil {
			return cfg, err
		}
	}
	lowerSet := cmd.Flags().Changed("gc-lower")
	upperSet := cmd.Flags().Changed("gc-upper")
	if lowerSet != upperSet {
		return cfg, fmt.Errorf("--gc-lower and --gc-upper must be set together")
	}
	if lowerSet && upperSet {
		if *distGCLower > *distGCUpper {
			return cfg, fmt.Errorf("gc-lower (%d) exceeds gc-upper (%d)", *distGCLower, *distGCUpper)
		}
		cfg.UseGCGate = true
		cfg.GCLower = *distGCLower
		cfg.GCUpper = *distGCUpper
	}
	if *distOut != "" && !*distForce {
		if _, err := os.Stat(*distOut); err == nil {
			return cfg, fmt.Errorf("output file already exists: %s (use -f to overwrite)", *distOut)
		}
	}
	if *proc <= 0 {
		cfg.NumWorkers = 1
	}
	return cfg, nil
}

// runDist is the main function for the dist sub-command.
func runDist(cmd *cobra.Command) {
	log.Printf("checking parameters...")
	cfg, err := distParamCheck(cmd)
	jamutil.ErrorCheck(err)

	log.Printf("loading query sketch %s...", *distQuery)
	queryDB, err := loadDatabase(*distQuery)
	jamutil.ErrorCheck(err)

	log.Printf("loading %d reference database(s)...", len(*distDatabases))
	refDB := &sketch.Database{}
	for _, path := range *distDatabases {
		one, err := loadDatabase(path)
		if err != nil {
			log.Printf("\tskipping database file %s: %v", path, err)
			continue
		}
		for _, s := range one.Sketches {
			jamutil.ErrorCheck(refDB.Append(s))
		}
	}

	var panel *report.Panel
	if *distPanel != "" {
		log.Printf("loading reference panel %s...", *distPanel)
		panel, err = report.LoadPanel(*distPanel)
		jamutil.ErrorCheck(err)
	}

	log.Printf("comparing...")
	results, err := compare.Compare(queryDB, refDB, cfg)
	jamutil.ErrorCheck(err)
	log.Printf("\t%d result(s) pass the cutoff", len(results))

	out := os.Stdout
	if *distOut != "" {
		fh, err := os.Create(*distOut)
		jamutil.ErrorCheck(err)
		defer fh.Close()
		out = fh
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	if panel != nil {
		fmt.Fprintln(w, "query_id\tdb_file\tdb_record\tintersection\tcontainment\tpanel_segment")
		for _, r := range results {
			segment, _ := panel.Annotate(r.DBRecord)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6f\t%s\n", r.QueryID, r.DBFile, r.DBRecord, r.Intersection, r.Containment, segment)
		}
	} else {
		fmt.Fprintln(w, "query_id\tdb_file\tdb_record\tintersection\tcontainment")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6f\n", r.QueryID, r.DBFile, r.DBRecord, r.Intersection, r.Containment)
		}
	}

	if *distHistogram != "" {
		containments := make([]float64, len(results))
		for i, r := range results {
			containments[i] = r.Containment
		}
		log.Printf("writing containment histogram %s...", *distHistogram)
		jamutil.ErrorCheck(report.SaveContainmentHistogram(containments, *distHistogram))
	}

	log.Println("finished")
}

// loadDatabase reads every sketch from a native-format file and wraps
// it in a Database, enforcing the HeaderMismatch invariant across the
// file's own contents. Errors are returned rather than treated as
// fatal: an unreadable or corrupt reference database is reported and
// skipped, not allowed to abort the whole comparison.
func loadDatabase(path string) (*sketch.Database, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	sketches, err := codec.DecodeAllNative(fh)
	if err != nil {
		return nil, err
	}
	return sketch.NewDatabase(sketches)
}
