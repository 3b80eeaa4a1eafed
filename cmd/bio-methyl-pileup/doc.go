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

/*
Given a somatic VCF and a tumor BAM whose reads carry base-modification tags
(MM/ML), bio-methyl-pileup reports, for every variant site, how many reads
carry the reference and the alternate allele and how methylated the region
around the site is on each kind of read.

For each site at 1-based position POS, the reads overlapping
[POS-window, POS+window] are examined.  A read whose base at POS matches the
first base of REF counts as reference; any other read, including one that
does not cover POS at all, counts as alternate (see -uncallable).  The read's
modification probabilities within the window are averaged to give its local
methylation, and those averages are in turn averaged per allele.

Two tables are written to the -out directory:

  Somatic_analy.txt   one row per site: allele counts and mean methylation.
  methyl_analy.txt    one row per (modified position, site, allele): the mean
                      probability of all reads contributing to it.

Secondary and supplementary alignments are ignored by default (-flag-exclude).
Sites whose region cannot be read, e.g. because the chromosome is absent from
the BAM, are logged and left out of the output.

Sample usage:
bio-methyl-pileup \
    -vcf somatic.vcf.gz \
    -tumor tumor.bam \
    -window 2000 \
    -out results/
*/
package main
