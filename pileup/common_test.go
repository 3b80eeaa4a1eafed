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
package pileup_test

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/pileup"
	"github.com/grailbio/testutil/expect"
)

func TestReverseComplement(t *testing.T) {
	expect.EQ(t, string(pileup.ReverseComplement(nil, []byte("AACGTn"))), "NACGTT")
	expect.EQ(t, string(pileup.ReverseComplement(nil, []byte("acgRY"))), "RYCGT")
	expect.EQ(t, pileup.ComplementBase('c'), byte('G'))
	expect.EQ(t, pileup.ComplementBase('?'), byte('N'))
	expect.EQ(t, pileup.UpperBase('g'), byte('G'))
	expect.EQ(t, pileup.UpperBase('='), byte('='))
}

func TestSeqBase(t *testing.T) {
	seq := sam.NewSeq([]byte("ACGTN"))
	got := make([]byte, seq.Length)
	for i := range got {
		got[i] = pileup.SeqBase(seq, i)
	}
	expect.EQ(t, string(got), "ACGTN")
}

func TestGetReadStrand(t *testing.T) {
	ref, _ := sam.NewReference("chr1", "", "", 100, nil, nil)
	expect.EQ(t, pileup.GetReadStrand(&sam.Record{Ref: ref}), pileup.StrandFwd)
	expect.EQ(t, pileup.GetReadStrand(&sam.Record{Ref: ref, Flags: sam.Reverse}), pileup.StrandRev)
	expect.EQ(t, pileup.GetReadStrand(&sam.Record{Flags: sam.Unmapped}), pileup.StrandNone)
}

func TestWindowRegion(t *testing.T) {
	tests := []struct {
		pos, window, start0, end0 int
	}{
		{1000, 5, 994, 1005},
		{1000, 0, 999, 1000},
		{3, 5, 0, 8},
		{1, 2000, 0, 2001},
	}
	for _, test := range tests {
		start0, end0 := pileup.WindowRegion(test.pos, test.window)
		expect.EQ(t, start0, test.start0, "pos %d window %d", test.pos, test.window)
		expect.EQ(t, end0, test.end0, "pos %d window %d", test.pos, test.window)
	}
}
