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

import "github.com/grailbio/methylsite/pileup"

const (
	// Unmapped marks a read position with no reference coordinate.
	Unmapped = -1
	// AlleleUnknown is reported when a read does not cover the site.
	AlleleUnknown = byte('N')
)

// Site is one somatic variant call.  Pos is 1-based.
type Site struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

// refBase returns the upper-cased first base of the reference allele, or 0 if
// the allele is empty.
func (s Site) refBase() byte {
	if len(s.Ref) == 0 {
		return 0
	}
	return pileup.UpperBase(s.Ref[0])
}

// ModObservation is a modification call projected onto the reference.
type ModObservation struct {
	// RefPos is 1-based.
	RefPos int
	// Prob is in [0, 1].
	Prob float64
}

// SiteSummary holds the per-site allele counts and mean methylation.
//
// UncallableCount and UncallableMethyl are only populated under
// UncallableSeparate; otherwise reads that do not cover the site are counted
// in AltCount.
type SiteSummary struct {
	Site
	RefCount         int
	AltCount         int
	RefMethyl        float64
	AltMethyl        float64
	UncallableCount  int
	UncallableMethyl float64
}

// LocusObservation attributes one read's modification call to the allele that
// read carries at a site.
type LocusObservation struct {
	ModChrom string
	ModPos   int
	SitePos  int
	Allele   byte
	Prob     float64
}

// LocusKey identifies a group of LocusObservations.
type LocusKey struct {
	ModChrom string
	ModPos   int
	SitePos  int
	Allele   byte
}

func (o LocusObservation) key() LocusKey {
	return LocusKey{ModChrom: o.ModChrom, ModPos: o.ModPos, SitePos: o.SitePos, Allele: o.Allele}
}

// LocusMethylation is the reduction of all LocusObservations sharing a key.
type LocusMethylation struct {
	LocusKey
	// Prob is the mean probability of the group.
	Prob float64
	// Count is the number of observations in the group.
	Count int
}

// Result is the output of Analyze.
type Result struct {
	// Summaries has one slot per input site, in input order.  A nil slot means
	// the site could not be analyzed.
	Summaries []*SiteSummary
	// Loci is sorted by (ModChrom, ModPos, SitePos, Allele).
	Loci []LocusMethylation
}
