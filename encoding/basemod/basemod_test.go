package basemod_test

import (
	"encoding/binary"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/encoding/basemod"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func mmAux(tag, mm string) sam.Aux {
	a := append([]byte(tag), 'Z')
	a = append(a, mm...)
	return sam.Aux(a)
}

func mlAux(tag string, vals ...uint8) sam.Aux {
	a := append([]byte(tag), 'B', 'C', 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(a[4:8], uint32(len(vals)))
	return sam.Aux(append(a, vals...))
}

func newRecord(seq string, flags sam.Flags, aux ...sam.Aux) *sam.Record {
	ref, _ := sam.NewReference("chr1", "", "", 10000, nil, nil)
	return &sam.Record{
		Name:      "r",
		Ref:       ref,
		Pos:       100,
		Flags:     flags,
		Cigar:     []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(seq))},
		Seq:       sam.NewSeq([]byte(seq)),
		AuxFields: aux,
	}
}

func TestDecodeForward(t *testing.T) {
	// C occurrences at 1, 4, 7.  Skip 0 -> 1, skip 1 -> 7.
	rec := newRecord("ACGACGACG", 0, mmAux("MM", "C+m,0,1;"), mlAux("ML", 200, 51))
	calls, err := basemod.Decode(rec)
	assert.NoError(t, err)
	expect.EQ(t, calls, []basemod.Call{
		{Pos: 1, Canonical: 'C', Strand: '+', Code: "m", Qual: 200},
		{Pos: 7, Canonical: 'C', Strand: '+', Code: "m", Qual: 51},
	})
	expect.EQ(t, calls[1].Prob(), 51.0/255)
}

func TestDecodeReverse(t *testing.T) {
	// Stored SEQ AACGT is the reverse complement of the sequenced ACGTT.  The
	// only sequenced C is at original index 1, i.e. stored index 3 (the G).
	rec := newRecord("AACGT", sam.Reverse, mmAux("MM", "C+m?,0;"), mlAux("ML", 255))
	calls, err := basemod.Decode(rec)
	assert.NoError(t, err)
	expect.EQ(t, calls, []basemod.Call{{Pos: 3, Canonical: 'C', Strand: '+', Code: "m", Qual: 255}})
	expect.EQ(t, calls[0].Prob(), 1.0)
}

func TestDecodeMultiCode(t *testing.T) {
	rec := newRecord("CCAC", 0, mmAux("MM", "C+mh,1,0"), mlAux("ML", 10, 20, 30, 40))
	calls, err := basemod.Decode(rec)
	assert.NoError(t, err)
	expect.EQ(t, calls, []basemod.Call{
		{Pos: 1, Canonical: 'C', Strand: '+', Code: "m", Qual: 10},
		{Pos: 1, Canonical: 'C', Strand: '+', Code: "h", Qual: 20},
		{Pos: 3, Canonical: 'C', Strand: '+', Code: "m", Qual: 30},
		{Pos: 3, Canonical: 'C', Strand: '+', Code: "h", Qual: 40},
	})
}

func TestDecodeMultipleGroups(t *testing.T) {
	rec := newRecord("CAGCA", 0, mmAux("Mm", "C+m,1;A-a,0;"), mlAux("Ml", 100, 7))
	calls, err := basemod.Decode(rec)
	assert.NoError(t, err)
	expect.EQ(t, calls, []basemod.Call{
		{Pos: 1, Canonical: 'A', Strand: '-', Code: "a", Qual: 7},
		{Pos: 3, Canonical: 'C', Strand: '+', Code: "m", Qual: 100},
	})
}

func TestDecodeAnyBaseAndChEBI(t *testing.T) {
	rec := newRecord("ACGT", 0, mmAux("MM", "N+17596,2"), mlAux("ML", 9))
	calls, err := basemod.Decode(rec)
	assert.NoError(t, err)
	expect.EQ(t, calls, []basemod.Call{{Pos: 2, Canonical: 'N', Strand: '+', Code: "17596", Qual: 9}})
}

func TestDecodeNoTags(t *testing.T) {
	calls, err := basemod.Decode(newRecord("ACGT", 0))
	expect.NoError(t, err)
	expect.EQ(t, len(calls), 0)

	// A group without deltas carries no calls.
	calls, err = basemod.Decode(newRecord("ACGT", 0, mmAux("MM", "C+m;")))
	expect.NoError(t, err)
	expect.EQ(t, len(calls), 0)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		rec  *sam.Record
	}{
		{"missing ML", newRecord("ACGT", 0, mmAux("MM", "C+m,0;"))},
		{"short ML", newRecord("ACCT", 0, mmAux("MM", "C+m,0,0;"), mlAux("ML", 1))},
		{"past end", newRecord("ACGT", 0, mmAux("MM", "C+m,3;"), mlAux("ML", 1))},
		{"bad base", newRecord("ACGT", 0, mmAux("MM", "X+m,0;"), mlAux("ML", 1))},
		{"bad strand", newRecord("ACGT", 0, mmAux("MM", "C*m,0;"), mlAux("ML", 1))},
		{"no code", newRecord("ACGT", 0, mmAux("MM", "C+,0;"), mlAux("ML", 1))},
		{"bad delta", newRecord("ACGT", 0, mmAux("MM", "C+m,x;"), mlAux("ML", 1))},
		{"negative delta", newRecord("ACGT", 0, mmAux("MM", "C+m,-1;"), mlAux("ML", 1))},
	}
	for _, test := range tests {
		_, err := basemod.Decode(test.rec)
		expect.True(t, err != nil, "%s: expected an error", test.name)
	}
}
