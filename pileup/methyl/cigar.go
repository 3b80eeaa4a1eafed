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
)

// NewReadToRefMap returns the reference position of every base of rec.
//
// The result has rec.Seq.Length+1 entries, indexed by 1-based read position;
// m[i] is the 1-based reference position aligned to read base i, or Unmapped
// for inserted and soft-clipped bases.  m[0] is always Unmapped.  CIGAR ops
// that consume neither the read nor the reference are ignored, and read
// positions past the end of SEQ are never written.
func NewReadToRefMap(rec *sam.Record) []int {
	readLen := rec.Seq.Length
	m := make([]int, readLen+1)
	for i := range m {
		m[i] = Unmapped
	}
	refPos := rec.Pos + 1
	readPos := 1
	for _, op := range rec.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				if readPos <= readLen {
					m[readPos] = refPos
				}
				readPos++
				refPos++
			}
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			refPos += n
		}
	}
	return m
}

// readPosOf returns the first 1-based read position aligned to refPos, or
// Unmapped.
func readPosOf(m []int, refPos int) int {
	if refPos < 1 {
		return Unmapped
	}
	for i := 1; i < len(m); i++ {
		if m[i] == refPos {
			return i
		}
	}
	return Unmapped
}
