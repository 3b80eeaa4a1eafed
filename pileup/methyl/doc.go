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

// Package methyl correlates somatic point mutations with the base-modification
// signal carried by nearby reads.
//
// For every candidate site, the reads overlapping [pos-window, pos+window] are
// classified by the base they carry at the site, and the modification
// probabilities they report inside the window are attributed to that allele.
// Per-site allele counts and mean methylation end up in SiteSummary rows;
// the individual (locus, site, allele) observations are reduced to one mean
// per key by AggregateLoci.
//
// Coordinates follow the usual text-vs-binary split: Site positions, map
// values and locus positions are 1-based, while sam.Record.Pos and the
// provider's regions are 0-based.
package methyl
