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
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/will-rowe/jam/src/codec"
	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/jamutil"
	"github.com/will-rowe/jam/src/sketch"
)

// the command line arguments
var (
	mergeOut    *string // output file
	mergeForce  *bool   // overwrite existing output
	mergeInputs []string
)

// the merge command (used by cobra)
var mergeCmd = &cobra.Command{
	Use:   "merge -o OUT [INPUTS]...",
	Short: "combine sketches sharing a header into one database",
	Long:  `merge concatenates the records of several sketch files, provided every input shares the same k-mer size and hash algorithm`,
	Run: func(cmd *cobra.Command, args []string) {
		mergeInputs = args
		runMerge()
	},
}

func init() {
	RootCmd.AddCommand(mergeCmd)
	mergeOut = mergeCmd.Flags().StringP("output", "o", "", "output file for the merged sketch")
	mergeForce = mergeCmd.Flags().BoolP("force", "f", false, "overwrite the output file if it already exists")
}

func mergeParamCheck() error {
	if len(mergeInputs) < 2 {
		return fmt.Errorf("merge needs at least 2 input sketch files")
	}
	for _, in := range mergeInputs {
		if err := jamutil.CheckFile(in); err != nil {
			return err
		}
	}
	if *mergeOut == "" {
		return fmt.Errorf("no output file specified (-o)")
	}
	if !*mergeForce {
		if _, err := os.Stat(*mergeOut); err == nil {
			return fmt.Errorf("output file already exists: %s (use -f to overwrite)", *mergeOut)
		}
	}
	return nil
}

// runMerge is the main function for the merge sub-command.
func runMerge() {
	log.Printf("checking parameters...")
	jamutil.ErrorCheck(mergeParamCheck())

	resultSource := strings.TrimSuffix(filepath.Base(*mergeOut), filepath.Ext(*mergeOut))

	var db *sketch.Database
	var policy filter.Policy
	manifest := &jamutil.Manifest{}

	for _, in := range mergeInputs {
		log.Printf("\treading %s...", in)
		fh, err := os.Open(in)
		jamutil.ErrorCheck(err)
		sketches, err := codec.DecodeAllNative(fh)
		fh.Close()
		jamutil.ErrorCheck(err)

		recordCount := 0
		for _, s := range sketches {
			recordCount += len(s.Records)
			if db == nil {
				db, err = sketch.NewDatabase(nil)
				jamutil.ErrorCheck(err)
				manifest.KmerSize = s.KmerSize
				manifest.Algorithm = s.Algorithm.String()
				policy = s.Policy
			} else if s.Policy != policy {
				jamutil.ErrorCheck(fmt.Errorf("HeaderMismatch: policy %+v does not match database policy %+v (source: %s)", s.Policy, policy, s.Source))
			}
			jamutil.ErrorCheck(db.Append(s))
		}
		manifest.SourceFiles = append(manifest.SourceFiles, in)
		manifest.RecordCounts = append(manifest.RecordCounts, recordCount)
	}

	merged := &sketch.Sketch{
		KmerSize:  db.KmerSize,
		Algorithm: db.Algorithm,
		Policy:    policy,
		Source:    resultSource,
	}
	for _, s := range db.Sketches {
		merged.Records = append(merged.Records, s.Records...)
	}
	merged.Singleton = len(merged.Records) > 1

	fh, err := os.Create(*mergeOut)
	jamutil.ErrorCheck(err)
	defer fh.Close()
	jamutil.ErrorCheck(codec.EncodeNative(fh, merged))
	jamutil.ErrorCheck(manifest.Dump(*mergeOut + ".manifest"))

	log.Printf("\tmerged %d input file(s) into %d record(s)", len(mergeInputs), len(merged.Records))
	log.Println("finished")
}
