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
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/methylsite/encoding/bamprovider"
)

// Analyze runs AnalyzeSite on every site, opts.Parallelism at a time, and
// aggregates the resulting locus observations.
//
// Each worker pulls the next unclaimed site index, so deep and shallow sites
// are balanced across workers.  Every AnalyzeSite call opens its own provider
// iterator.  Sites that fail are logged and left as nil slots in
// Result.Summaries.  The output does not depend on opts.Parallelism.
func Analyze(provider bamprovider.Provider, sites []Site, opts *Opts) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	parallelism := opts.Parallelism
	if parallelism > len(sites) {
		parallelism = len(sites)
	}
	if parallelism < 1 {
		parallelism = 1
	}
	summaries := make([]*SiteSummary, len(sites))
	var (
		mu      sync.Mutex
		loci    []LocusObservation
		next    int64 = -1
		nFailed int64
	)
	log.Printf("methyl: analyzing %d sites (%d jobs, window %d)", len(sites), parallelism, opts.Window)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		for {
			i := int(atomic.AddInt64(&next, 1))
			if i >= len(sites) {
				return nil
			}
			summary, siteLoci, err := AnalyzeSite(provider, sites[i], opts)
			if err != nil {
				log.Error.Printf("methyl: skipping %s:%d: %v", sites[i].Chrom, sites[i].Pos, err)
				atomic.AddInt64(&nFailed, 1)
				continue
			}
			summaries[i] = summary
			if len(siteLoci) > 0 {
				mu.Lock()
				loci = append(loci, siteLoci...)
				mu.Unlock()
			}
		}
	})
	if err != nil {
		return Result{}, err
	}
	log.Printf("methyl: %d sites analyzed, %d skipped, %d locus observations",
		len(sites)-int(nFailed), nFailed, len(loci))
	return Result{Summaries: summaries, Loci: AggregateLoci(loci)}, nil
}
