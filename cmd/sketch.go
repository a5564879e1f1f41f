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
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/jam/src/codec"
	"github.com/will-rowe/jam/src/discover"
	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/jamutil"
	"github.com/will-rowe/jam/src/sketchbuilder"
	"github.com/will-rowe/jam/src/version"
)

// the command line arguments
var (
	sketchOut       *string  // output file
	sketchKmerSize  *int     // k-mer size
	sketchFscale    *uint64  // fscale admission ceiling
	sketchKscale    *uint64  // kscale admission ceiling
	sketchNmin      *uint64  // minimum retained hashes per record
	sketchNmax      *uint64  // maximum retained hashes per record
	sketchFormat    *string  // output format: bin or sourmash
	sketchAlgorithm *string  // hash algorithm: default, ahash, xxhash, murmur3
	sketchSingleton *bool    // one sketch per record rather than per file
	sketchStats     *bool    // collect base-composition stats
	sketchForce     *bool    // overwrite existing output
	sketchInputs    []string // resolved during Run, not a flag
)

// the sketch command (used by cobra)
var sketchCmd = &cobra.Command{
	Use:   "sketch [INPUT]...",
	Short: "build FracMinHash sketches from FASTA/FASTQ input",
	Long:  `sketch turns one or more FASTA/FASTQ files (optionally gzipped, in directories, .list files, or archives) into sketches, written to a single output file`,
	Run: func(cmd *cobra.Command, args []string) {
		sketchInputs = args
		runSketch()
	},
}

func init() {
	RootCmd.AddCommand(sketchCmd)
	sketchOut = sketchCmd.Flags().StringP("output", "o", "", "output file for the sketch")
	sketchKmerSize = sketchCmd.Flags().IntP("ksize", "k", 21, "k-mer size")
	sketchFscale = sketchCmd.Flags().Uint64("fscale", 0, "fscale admission ceiling (0 disables fscale downsampling)")
	sketchKscale = sketchCmd.Flags().Uint64("kscale", 0, "kscale admission ceiling (0 disables kscale downsampling)")
	sketchNmin = sketchCmd.Flags().Uint64("nmin", 0, "minimum number of hashes retained per record (0 disables)")
	sketchNmax = sketchCmd.Flags().Uint64("nmax", 0, "maximum number of hashes retained per record (0 disables)")
	sketchFormat = sketchCmd.Flags().String("format", "bin", "output format: bin or sourmash")
	sketchAlgorithm = sketchCmd.Flags().String("algorithm", "default", "hash algorithm: default, ahash, xxhash, or murmur3")
	sketchSingleton = sketchCmd.Flags().Bool("singleton", false, "sketch every record separately instead of collapsing a file into one record")
	sketchStats = sketchCmd.Flags().Bool("stats", false, "collect base-composition stats per record")
	sketchForce = sketchCmd.Flags().BoolP("force", "f", false, "overwrite the output file if it already exists")
}

// sketchParamCheck validates the command's flags before any work starts;
// every failure here is a ConfigError, fatal and pre-flight.
func sketchParamCheck() (filter.Policy, hasher.Algorithm, error) {
	if len(sketchInputs) == 0 {
		return filter.Policy{}, 0, fmt.Errorf("no input files specified")
	}
	if *sketchOut == "" {
		return filter.Policy{}, 0, fmt.Errorf("no output file specified (-o)")
	}
	if !*sketchForce {
		if _, err := os.Stat(*sketchOut); err == nil {
			return filter.Policy{}, 0, fmt.Errorf("output file already exists: %s (use -f to overwrite)", *sketchOut)
		}
	}
	if *sketchFormat != "bin" && *sketchFormat != "sourmash" {
		return filter.Policy{}, 0, fmt.Errorf("unrecognised output format: %s (expected bin or sourmash)", *sketchFormat)
	}
	algo, err := hasher.ParseAlgorithm(*sketchAlgorithm)
	if err != nil {
		return filter.Policy{}, 0, err
	}
	if *sketchFormat == "sourmash" && algo != hasher.Murmur3 {
		log.Printf("\twarning: sourmash output is only interoperable when built with --algorithm murmur3")
	}
	policy := filter.Policy{Fscale: *sketchFscale, Kscale: *sketchKscale, Nmin: *sketchNmin, Nmax: *sketchNmax}
	if err := policy.Validate(); err != nil {
		return filter.Policy{}, 0, err
	}
	if policy.Fscale != 0 && policy.Kscale != 0 {
		log.Printf("\twarning: both --fscale and --kscale are set; fscale gates first, kscale then gates the survivors")
	}
	if *proc <= 0 || *proc > runtime.NumCPU() {
		*proc = runtime.NumCPU()
	}
	return policy, algo, nil
}

// runSketch is the main function for the sketch sub-command.
func runSketch() {
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	log.Printf("jam version %s", version.GetVersion())
	log.Printf("checking parameters...")
	policy, algo, err := sketchParamCheck()
	jamutil.ErrorCheck(err)
	log.Printf("\tk-mer size: %d", *sketchKmerSize)
	log.Printf("\thash algorithm: %s", algo)
	log.Printf("\tthreads: %d", *proc)

	log.Printf("resolving input files...")
	paths, err := discover.Collect(sketchInputs)
	jamutil.ErrorCheck(err)
	log.Printf("\tfound %d input file(s)", len(paths))

	cfg := sketchbuilder.Config{
		KmerSize:     *sketchKmerSize,
		Algorithm:    algo,
		Policy:       policy,
		Singleton:    *sketchSingleton,
		CollectStats: *sketchStats,
		NumWorkers:   *proc,
	}

	log.Printf("sketching...")
	sketches, err := sketchbuilder.Build(paths, cfg)
	jamutil.ErrorCheck(err)

	fh, err := os.Create(*sketchOut)
	jamutil.ErrorCheck(err)
	defer fh.Close()

	log.Printf("writing %s...", *sketchOut)
	for _, s := range sketches {
		switch *sketchFormat {
		case "sourmash":
			err = codec.EncodeSourmash(fh, s)
		default:
			err = codec.EncodeNative(fh, s)
		}
		jamutil.ErrorCheck(err)
	}

	info := &jamutil.RunInfo{
		Version:      version.GetVersion(),
		KmerSize:     *sketchKmerSize,
		Algorithm:    algo.String(),
		Fscale:       policy.Fscale,
		Kscale:       policy.Kscale,
		Nmin:         policy.Nmin,
		Nmax:         policy.Nmax,
		Singleton:    *sketchSingleton,
		InputSources: paths,
		NumProc:      *proc,
	}
	jamutil.ErrorCheck(info.Dump(*sketchOut + ".runinfo"))
	log.Println("finished")
}
