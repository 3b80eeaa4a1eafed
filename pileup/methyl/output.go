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
package methyl

import (
	"context"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

const (
	// SummaryFile is the per-site table written by WriteResult.
	SummaryFile = "Somatic_analy.txt"
	// LocusFile is the per-locus table written by WriteResult.
	LocusFile = "methyl_analy.txt"
)

// outputPath joins dir and name, appending ".gz" for bgzipped output.  dir may
// be an S3 prefix.
func outputPath(dir, name, format string) string {
	p := name
	if dir != "" {
		p = strings.TrimRight(dir, "/") + "/" + name
	}
	if format == FormatTSVBgz {
		p += ".gz"
	}
	return p
}

// WriteResult writes r's site and locus tables into dir.
func WriteResult(ctx context.Context, dir string, r Result, opts *Opts) error {
	if err := WriteSummaries(ctx, outputPath(dir, SummaryFile, opts.Format), r.Summaries, opts); err != nil {
		return err
	}
	return WriteLoci(ctx, outputPath(dir, LocusFile, opts.Format), r.Loci, opts)
}

// writeTSV creates path and calls fn with a TSV writer on it, bgzipping the
// stream if opts.Format asks for it.
func writeTSV(ctx context.Context, path string, opts *Opts, fn func(w *tsv.Writer) error) (err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)

	var w *tsv.Writer
	if opts.Format != FormatTSVBgz {
		w = tsv.NewWriter(dst.Writer(ctx))
	} else {
		parallelism := opts.Parallelism
		if parallelism <= 0 {
			parallelism = 1
		}
		bgzfWriter := bgzf.NewWriter(dst.Writer(ctx), parallelism)
		w = tsv.NewWriter(bgzfWriter)
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
	}
	if err = fn(w); err != nil {
		return
	}
	return w.Flush()
}

// WriteSummaries writes one row per analyzed site, sorted by position.  Nil
// entries (skipped sites) are omitted.
func WriteSummaries(ctx context.Context, path string, summaries []*SiteSummary, opts *Opts) error {
	separate := opts.Uncallable == UncallableSeparate
	rows := sortSummaries(summaries)
	err := writeTSV(ctx, path, opts, func(w *tsv.Writer) error {
		w.WriteString("chr\tPOS\tref\talt\tref_count\talt_count\tref_methyl\talt_methyl")
		if separate {
			w.WriteString("uncallable_count\tuncallable_methyl")
		}
		if err := w.EndLine(); err != nil {
			return err
		}
		for _, s := range rows {
			w.WriteString(s.Chrom)
			w.WriteUint32(uint32(s.Pos))
			w.WriteString(s.Ref)
			w.WriteString(s.Alt)
			w.WriteUint32(uint32(s.RefCount))
			w.WriteUint32(uint32(s.AltCount))
			w.WriteFloat64(s.RefMethyl, 'g', 6)
			w.WriteFloat64(s.AltMethyl, 'g', 6)
			if separate {
				w.WriteUint32(uint32(s.UncallableCount))
				w.WriteFloat64(s.UncallableMethyl, 'g', 6)
			}
			if err := w.EndLine(); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		log.Printf("WriteSummaries: %d sites written to %s", len(rows), path)
	}
	return err
}

// WriteLoci writes one row per aggregated locus, in the order given.
func WriteLoci(ctx context.Context, path string, loci []LocusMethylation, opts *Opts) error {
	err := writeTSV(ctx, path, opts, func(w *tsv.Writer) error {
		w.WriteString("Methyl_Chr\tMethyl_POS\tSomatic_POS\tSomatic_Allele\tMethylation_Score")
		if err := w.EndLine(); err != nil {
			return err
		}
		for _, l := range loci {
			w.WriteString(l.ModChrom)
			w.WriteUint32(uint32(l.ModPos))
			w.WriteUint32(uint32(l.SitePos))
			w.WriteByte(l.Allele)
			w.WriteFloat64(l.Prob, 'g', 6)
			if err := w.EndLine(); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		log.Printf("WriteLoci: %d loci written to %s", len(loci), path)
	}
	return err
}
