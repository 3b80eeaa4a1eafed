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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/encoding/bamprovider"
	"github.com/grailbio/methylsite/pileup"
)

// AnalyzeSite scans the reads of provider overlapping
// [max(1, site.Pos-opts.Window), site.Pos+opts.Window] and returns the site's
// summary along with the per-read locus observations.
//
// Reads whose flags intersect opts.FlagExclude, or whose MAPQ is below
// opts.MinMapQ, are skipped.  Every other overlapping read is counted exactly
// once.  An error means the region could not be read (unknown chromosome,
// unreadable file or index); the caller is expected to skip the site.
func AnalyzeSite(provider bamprovider.Provider, site Site, opts *Opts) (summary *SiteSummary, loci []LocusObservation, err error) {
	start, end := pileup.WindowRegion(site.Pos, opts.Window)
	iter := provider.NewIterator(bamprovider.Region{RefName: site.Chrom, Start: start, End: end})
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = e
		}
		if err != nil {
			summary, loci = nil, nil
		}
	}()

	var refSum, altSum, uncallableSum float64
	summary = &SiteSummary{Site: site}
	flagExclude := sam.Flags(opts.FlagExclude)
	separate := opts.Uncallable == UncallableSeparate
	for iter.Scan() {
		rec := iter.Record()
		if rec.Flags&flagExclude != 0 || int(rec.MapQ) < opts.MinMapQ {
			continue
		}
		call := ClassifyRead(site, rec, opts.Window, opts.ModCode)
		switch {
		case separate && call.Allele == AlleleUnknown:
			summary.UncallableCount++
			uncallableSum += call.LocalMean
		case call.IsRef(site):
			summary.RefCount++
			refSum += call.LocalMean
		default:
			summary.AltCount++
			altSum += call.LocalMean
		}
		for _, o := range call.Obs {
			loci = append(loci, LocusObservation{
				ModChrom: site.Chrom,
				ModPos:   o.RefPos,
				SitePos:  site.Pos,
				Allele:   call.Allele,
				Prob:     o.Prob,
			})
		}
	}
	if err = iter.Err(); err != nil {
		return
	}
	summary.RefMethyl = meanOf(refSum, summary.RefCount)
	summary.AltMethyl = meanOf(altSum, summary.AltCount)
	summary.UncallableMethyl = meanOf(uncallableSum, summary.UncallableCount)
	return
}

func meanOf(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
