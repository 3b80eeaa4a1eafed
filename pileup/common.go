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
package pileup

import (
	"github.com/grailbio/hts/sam"
)

// Common pileup components.

// Seq8ToASCIITable is the .bam seq nibble -> ASCII mapping.
var Seq8ToASCIITable = [...]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// complementTable maps each IUPAC code (either case) to the upper-case code of
// its complement.  Unknown bytes map to 'N'.
var complementTable = func() (t [256]byte) {
	for i := range t {
		t[i] = 'N'
	}
	pairs := []string{"AT", "CG", "MK", "RY", "SS", "WW", "VB", "HD", "NN", "=="}
	for _, p := range pairs {
		a, b := p[0], p[1]
		t[a], t[b] = b, a
		t[a|0x20], t[b|0x20] = b, a
	}
	return
}()

// ComplementBase returns the upper-case IUPAC complement of base.
func ComplementBase(base byte) byte {
	return complementTable[base]
}

// ReverseComplement writes the reverse complement of seq into dst, which is
// grown as necessary, and returns it.
func ReverseComplement(dst, seq []byte) []byte {
	dst = dst[:0]
	for i := len(seq) - 1; i >= 0; i-- {
		dst = append(dst, complementTable[seq[i]])
	}
	return dst
}

// UpperBase returns the upper-case form of an ASCII base.
func UpperBase(base byte) byte {
	if base >= 'a' && base <= 'z' {
		return base - ('a' - 'A')
	}
	return base
}

// StrandType describes which reference strand a read is aligned to.
type StrandType int

const (
	// StrandNone means the strand is undefined (unmapped record).
	StrandNone StrandType = iota
	// StrandFwd means the stored SEQ is the sequenced read.
	StrandFwd
	// StrandRev means the stored SEQ is the reverse complement of the
	// sequenced read.
	StrandRev
)

// GetReadStrand returns the strand a single record is aligned to.  Unlike a
// read-pair strand, this only looks at the record's own REVERSE bit.
func GetReadStrand(samr *sam.Record) StrandType {
	if samr.Flags&sam.Unmapped != 0 && samr.Ref == nil {
		return StrandNone
	}
	if samr.Flags&sam.Reverse != 0 {
		return StrandRev
	}
	return StrandFwd
}

// WindowRegion converts a 1-based site position and a window radius into the
// 0-based half-open interval covering [max(1, pos-window), pos+window] in
// 1-based closed coordinates.
func WindowRegion(pos, window int) (start0, end0 int) {
	start1 := pos - window
	if start1 < 1 {
		start1 = 1
	}
	return start1 - 1, pos + window
}

// SeqBase returns the ASCII base at 0-based position pos of a packed .bam
// sequence.  Even positions live in the high nibble.
func SeqBase(seq sam.Seq, pos int) byte {
	d := byte(seq.Seq[pos>>1])
	if pos&1 == 0 {
		return Seq8ToASCIITable[d>>4]
	}
	return Seq8ToASCIITable[d&15]
}
