// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/methylsite/encoding/bamprovider"
	"github.com/grailbio/methylsite/encoding/vcf"
	"github.com/grailbio/methylsite/pileup/methyl"
)

var (
	vcfPath      = flag.String("vcf", "", "Somatic VCF path (required)")
	tumorPath    = flag.String("tumor", "", "Tumor BAM path (required)")
	normalPath   = flag.String("normal", "", "Normal BAM path; accepted but not analyzed yet")
	bamIndexPath = flag.String("index", "", "Tumor BAM index path. Defaults to tumor + .bai")
	outDir       = flag.String("out", ".", "Output directory")
	window       = flag.Int("window", methyl.DefaultOpts.Window, "Number of reference bases on each side of a site to examine")
	parallelism  = flag.Int("parallelism", methyl.DefaultOpts.Parallelism, "Maximum number of sites analyzed simultaneously; 0 = runtime.NumCPU()")
	flagExclude  = flag.Int("flag-exclude", methyl.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	minMapQ      = flag.Int("min-mapq", methyl.DefaultOpts.MinMapQ, "Reads with MAPQ below this level are skipped")
	modCode      = flag.String("mod-code", methyl.DefaultOpts.ModCode, "Only use modification calls with this MM code, e.g. 'm'; default uses all codes")
	uncallable   = flag.String("uncallable", methyl.DefaultOpts.Uncallable, "What to do with reads not covering the site: 'alt' counts them as alternate, 'separate' reports them in their own columns")
	format       = flag.String("format", methyl.DefaultOpts.Format, "Output format; 'tsv' and 'tsv-bgz' supported")
)

func bioMethylPileupUsage() {
	fmt.Printf("Usage: %s -vcf somatic.vcf -tumor tumor.bam [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

type runOpts struct {
	vcfPath    string
	tumorPath  string
	normalPath string
	indexPath  string
	outDir     string
	methyl     methyl.Opts
}

func run(ctx context.Context, opts runOpts) error {
	if err := opts.methyl.Validate(); err != nil {
		return err
	}
	if opts.normalPath != "" {
		log.Printf("normal BAM %s: tumor/normal comparison is not implemented, ignoring", opts.normalPath)
	}

	start := time.Now()
	vsites, err := vcf.ReadSites(ctx, opts.vcfPath)
	if err != nil {
		return err
	}
	sites := make([]methyl.Site, len(vsites))
	for i, s := range vsites {
		sites[i] = methyl.Site{Chrom: s.Chrom, Pos: s.Pos, Ref: s.Ref, Alt: s.Alt}
	}
	log.Printf("read %d sites in %v", len(sites), time.Since(start))

	start = time.Now()
	provider := bamprovider.NewProvider(opts.tumorPath, bamprovider.ProviderOpts{Index: opts.indexPath})
	if _, err = provider.GetHeader(); err != nil {
		provider.Close() // nolint: errcheck
		return err
	}
	result, err := methyl.Analyze(provider, sites, &opts.methyl)
	if e := provider.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}
	log.Printf("analyzed %d sites in %v", len(sites), time.Since(start))

	start = time.Now()
	if err = methyl.WriteResult(ctx, opts.outDir, result, &opts.methyl); err != nil {
		return err
	}
	log.Printf("wrote results to %s in %v", opts.outDir, time.Since(start))
	return nil
}

func main() {
	flag.Usage = bioMethylPileupUsage
	shutdown := grail.Init()
	defer shutdown()

	if *vcfPath == "" {
		log.Fatalf("-vcf is required")
	}
	if *tumorPath == "" {
		log.Fatalf("-tumor is required")
	}
	if flag.NArg() > 0 {
		log.Fatalf("Unexpected positional arguments %v; please check flag syntax", flag.Args())
	}
	opts := runOpts{
		vcfPath:    *vcfPath,
		tumorPath:  *tumorPath,
		normalPath: *normalPath,
		indexPath:  *bamIndexPath,
		outDir:     *outDir,
		methyl: methyl.Opts{
			Window:      *window,
			Parallelism: *parallelism,
			FlagExclude: *flagExclude,
			MinMapQ:     *minMapQ,
			ModCode:     *modCode,
			Uncallable:  *uncallable,
			Format:      *format,
		},
	}
	start := time.Now()
	if err := run(vcontext.Background(), opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("done in %v", time.Since(start))
}
