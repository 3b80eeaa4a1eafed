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
package methyl_test

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	status := m.Run()
	shutdown()
	os.Exit(status)
}

func newHeader(t *testing.T) (*sam.Header, *sam.Reference, *sam.Reference) {
	chr1, err := sam.NewReference("chr1", "", "", 100000, nil, nil)
	require.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 100000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	require.NoError(t, err)
	return header, chr1, chr2
}

func m(n int) sam.Cigar {
	return sam.Cigar{sam.NewCigarOp(sam.CigarMatch, n)}
}

// newRead creates a record aligned at 0-based pos.  If mm is nonempty, the
// record gets MM:Z:mm and ML:B:C,ml... tags.
func newRead(name string, ref *sam.Reference, pos int, cigar sam.Cigar, seq string, flags sam.Flags, mm string, ml ...uint8) *sam.Record {
	qual := make([]byte, len(seq))
	for i := range qual {
		qual[i] = 30
	}
	rec := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     pos,
		MapQ:    60,
		Flags:   flags,
		Cigar:   cigar,
		MatePos: -1,
		Seq:     sam.NewSeq([]byte(seq)),
		Qual:    qual,
	}
	if mm != "" {
		mmTag := append([]byte("MMZ"), mm...)
		mlTag := append([]byte("MLBC"), 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(mlTag[4:8], uint32(len(ml)))
		rec.AuxFields = []sam.Aux{sam.Aux(mmTag), sam.Aux(append(mlTag, ml...))}
	}
	return rec
}
