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
	"github.com/grailbio/methylsite/pileup"
	"gonum.org/v1/gonum/stat"
)

// ReadCall is the classification of a single read against a site.
type ReadCall struct {
	// Allele is the upper-cased base the read carries at the site, or
	// AlleleUnknown if no read base is aligned there.
	Allele byte
	// LocalMean is the mean probability of Obs, or 0 if Obs is empty.
	LocalMean float64
	// Obs holds the read's modification calls within the window around the
	// site, in read order.
	Obs []ModObservation
}

// ClassifyRead determines the allele rec carries at site and the
// modification signal it reports within window reference bases of it,
// inclusive.
func ClassifyRead(site Site, rec *sam.Record, window int, modCode string) ReadCall {
	m := NewReadToRefMap(rec)
	all := ProjectModifications(rec, m, modCode)

	var (
		obs   []ModObservation
		probs []float64
	)
	for _, o := range all {
		d := o.RefPos - site.Pos
		if d < -window || d > window {
			continue
		}
		obs = append(obs, o)
		probs = append(probs, o.Prob)
	}
	call := ReadCall{Allele: AlleleUnknown, Obs: obs}
	if len(probs) > 0 {
		call.LocalMean = stat.Mean(probs, nil)
	}
	if i := readPosOf(m, site.Pos); i != Unmapped {
		call.Allele = pileup.UpperBase(pileup.SeqBase(rec.Seq, i-1))
	}
	return call
}

// IsRef reports whether call supports the reference allele of site.
func (call ReadCall) IsRef(site Site) bool {
	return call.Allele == site.refBase()
}
