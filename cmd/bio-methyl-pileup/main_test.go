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
	"encoding/binary"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/encoding/bamprovider"
	"github.com/grailbio/methylsite/pileup/methyl"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=chr1,length=10000>
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	TUMOR
chr1	1000	.	A	G	50	PASS	.	GT	0/1
chrX	5	.	C	T	50	PASS	.	GT	0/1
`

func newRead(ref *sam.Reference, pos int, seq string, mm string, ml ...uint8) *sam.Record {
	qual := make([]byte, len(seq))
	rec := &sam.Record{
		Name:    "r",
		Ref:     ref,
		Pos:     pos,
		MapQ:    60,
		Cigar:   sam.Cigar{sam.NewCigarOp(sam.CigarMatch, len(seq))},
		MatePos: -1,
		Seq:     sam.NewSeq([]byte(seq)),
		Qual:    qual,
	}
	if mm != "" {
		mlTag := append([]byte("MLBC"), 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(mlTag[4:8], uint32(len(ml)))
		rec.AuxFields = []sam.Aux{
			sam.Aux(append([]byte("MMZ"), mm...)),
			sam.Aux(append(mlTag, ml...)),
		}
	}
	return rec
}

func writeInputs(t *testing.T, dir string) (vcfPath, bamPath string) {
	chr1, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	assert.NoError(t, err)
	bamPath = filepath.Join(dir, "tumor.bam")
	assert.NoError(t, bamprovider.WriteIndexedBAM(bamPath, header, []*sam.Record{
		newRead(chr1, 995, "TTTTATCTTT", "C+m,0;", 255),
		newRead(chr1, 997, "TTGTTTTTTT", ""),
	}))
	vcfPath = filepath.Join(dir, "somatic.vcf")
	assert.NoError(t, ioutil.WriteFile(vcfPath, []byte(testVCF), 0644))
	return
}

func TestRun(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	vcfPath, bamPath := writeInputs(t, tmpDir)

	opts := runOpts{vcfPath: vcfPath, tumorPath: bamPath, normalPath: bamPath, outDir: tmpDir, methyl: methyl.DefaultOpts}
	opts.methyl.Window = 5
	assert.NoError(t, run(vcontext.Background(), opts))

	data, err := ioutil.ReadFile(filepath.Join(tmpDir, methyl.SummaryFile))
	assert.NoError(t, err)
	expect.EQ(t, string(data),
		"chr\tPOS\tref\talt\tref_count\talt_count\tref_methyl\talt_methyl\n"+
			"chr1\t1000\tA\tG\t1\t1\t1\t0\n")
	data, err = ioutil.ReadFile(filepath.Join(tmpDir, methyl.LocusFile))
	assert.NoError(t, err)
	expect.EQ(t, string(data),
		"Methyl_Chr\tMethyl_POS\tSomatic_POS\tSomatic_Allele\tMethylation_Score\n"+
			"chr1\t1002\t1000\tA\t1\n")
}

func TestRunErrors(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	vcfPath, bamPath := writeInputs(t, tmpDir)
	ctx := vcontext.Background()

	opts := runOpts{vcfPath: filepath.Join(tmpDir, "missing.vcf"), tumorPath: bamPath, outDir: tmpDir, methyl: methyl.DefaultOpts}
	expect.True(t, run(ctx, opts) != nil)

	opts = runOpts{vcfPath: vcfPath, tumorPath: filepath.Join(tmpDir, "missing.bam"), outDir: tmpDir, methyl: methyl.DefaultOpts}
	expect.True(t, run(ctx, opts) != nil)

	opts = runOpts{vcfPath: vcfPath, tumorPath: bamPath, outDir: tmpDir, methyl: methyl.DefaultOpts}
	opts.methyl.Format = "vcf"
	expect.True(t, run(ctx, opts) != nil)
}
