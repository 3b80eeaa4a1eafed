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
	"sort"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// AggregateLoci reduces obs to one LocusMethylation per distinct
// (ModChrom, ModPos, SitePos, Allele) key, holding the mean probability of the
// key's observations.  obs is not modified.
//
// Each group's probabilities are summed in sorted order, so the result is
// identical for any permutation of obs.  The output is sorted by key.
func AggregateLoci(obs []LocusObservation) []LocusMethylation {
	groups := make(map[LocusKey][]float64)
	for _, o := range obs {
		k := o.key()
		groups[k] = append(groups[k], o.Prob)
	}
	out := make([]LocusMethylation, 0, len(groups))
	for k, probs := range groups {
		slices.Sort(probs)
		out = append(out, LocusMethylation{LocusKey: k, Prob: stat.Mean(probs, nil), Count: len(probs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocusKey.less(out[j].LocusKey) })
	return out
}

func (k LocusKey) less(o LocusKey) bool {
	if k.ModChrom != o.ModChrom {
		return k.ModChrom < o.ModChrom
	}
	if k.ModPos != o.ModPos {
		return k.ModPos < o.ModPos
	}
	if k.SitePos != o.SitePos {
		return k.SitePos < o.SitePos
	}
	return k.Allele < o.Allele
}

// sortSummaries returns the non-nil entries of summaries ordered by
// (Chrom, Pos, Ref, Alt).
func sortSummaries(summaries []*SiteSummary) []*SiteSummary {
	out := make([]*SiteSummary, 0, len(summaries))
	for _, s := range summaries {
		if s != nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Chrom != b.Chrom {
			return a.Chrom < b.Chrom
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		return a.Alt < b.Alt
	})
	return out
}
