// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package basemod decodes the base-modification aux tags (MM and ML, or the
// draft-era Mm and Ml) attached to BAM records.
//
// An MM tag is a ';'-separated list of groups
//
//   <canonical base><strand><codes>[.?],<delta>,<delta>,...
//
// where each delta counts the occurrences of the canonical base, in the
// orientation the read was sequenced in, to skip before the next called
// base.  The ML tag is a B:C array holding one probability byte per called
// base per code, in group order.
package basemod

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/pileup"
)

var (
	mmTags = []sam.Tag{{'M', 'M'}, {'M', 'm'}}
	mlTags = []sam.Tag{{'M', 'L'}, {'M', 'l'}}
)

// Call is a single modification probability reported for one read base.
type Call struct {
	// Pos is the 0-based position in the record's stored SEQ, i.e. in
	// reference orientation.
	Pos int
	// Canonical is the unmodified base named by the MM group, as sequenced.
	Canonical byte
	// Strand is '+' or '-'.
	Strand byte
	// Code is the modification code, e.g. "m", "h" or a ChEBI number.
	Code string
	// Qual is the raw ML value.
	Qual uint8
}

// Prob returns the call's modification probability in [0, 1].
func (c Call) Prob() float64 {
	return float64(c.Qual) / 255
}

// group is one parsed MM entry.
type group struct {
	canonical byte
	strand    byte
	codes     []string
	deltas    []int
}

func findAux(rec *sam.Record, tags []sam.Tag) sam.Aux {
	for _, tag := range tags {
		for _, aux := range rec.AuxFields {
			if len(aux) >= 3 && aux.Tag() == tag {
				return aux
			}
		}
	}
	return nil
}

func auxString(aux sam.Aux) (string, error) {
	if aux.Type() != 'Z' {
		return "", fmt.Errorf("basemod: %s tag has type %c, want Z", aux.Tag(), aux.Type())
	}
	return string(bytes.TrimRight(aux[3:], "\x00")), nil
}

func auxUint8Array(aux sam.Aux) ([]uint8, error) {
	if aux.Type() != 'B' || len(aux) < 8 || aux[3] != 'C' {
		return nil, fmt.Errorf("basemod: %s tag is not a B:C array", aux.Tag())
	}
	n := int(binary.LittleEndian.Uint32(aux[4:8]))
	if len(aux)-8 < n {
		return nil, fmt.Errorf("basemod: %s tag claims %d values, has %d", aux.Tag(), n, len(aux)-8)
	}
	return aux[8 : 8+n], nil
}

// Decode returns the modification calls carried by rec, ordered by Pos.  A
// record without an MM tag yields no calls and no error.
func Decode(rec *sam.Record) ([]Call, error) {
	mmAux := findAux(rec, mmTags)
	if mmAux == nil {
		return nil, nil
	}
	mm, err := auxString(mmAux)
	if err != nil {
		return nil, err
	}
	var ml []uint8
	if mlAux := findAux(rec, mlTags); mlAux != nil {
		if ml, err = auxUint8Array(mlAux); err != nil {
			return nil, err
		}
	}
	return DecodeTags(mm, ml, rec.Seq.Expand(), pileup.GetReadStrand(rec) == pileup.StrandRev)
}

// DecodeTags decodes an MM string and its ML values against the stored SEQ
// of a record.  reverse reports whether SEQ is the reverse complement of the
// sequenced read.
func DecodeTags(mm string, ml []uint8, seq []byte, reverse bool) ([]Call, error) {
	groups, err := parseMM(mm)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}
	orig := seq
	if reverse {
		orig = pileup.ReverseComplement(make([]byte, 0, len(seq)), seq)
	}
	var (
		calls []Call
		mlOff int
	)
	for _, g := range groups {
		need := len(g.deltas) * len(g.codes)
		if mlOff+need > len(ml) {
			return nil, fmt.Errorf("basemod: ML has %d values, MM needs at least %d", len(ml), mlOff+need)
		}
		i := 0
		for j, delta := range g.deltas {
			skip := delta
			for ; i < len(orig); i++ {
				if !baseMatches(g.canonical, orig[i]) {
					continue
				}
				if skip == 0 {
					break
				}
				skip--
			}
			if i >= len(orig) {
				return nil, fmt.Errorf("basemod: MM group %c%c%s runs past the end of a %d-base read", g.canonical, g.strand, strings.Join(g.codes, ""), len(orig))
			}
			pos := i
			if reverse {
				pos = len(orig) - 1 - i
			}
			for c, code := range g.codes {
				calls = append(calls, Call{
					Pos:       pos,
					Canonical: g.canonical,
					Strand:    g.strand,
					Code:      code,
					Qual:      ml[mlOff+j*len(g.codes)+c],
				})
			}
			i++
		}
		mlOff += need
	}
	sort.SliceStable(calls, func(a, b int) bool { return calls[a].Pos < calls[b].Pos })
	return calls, nil
}

func baseMatches(canonical, base byte) bool {
	return canonical == 'N' || pileup.UpperBase(base) == canonical
}

func parseMM(mm string) ([]group, error) {
	var groups []group
	for _, entry := range strings.Split(mm, ";") {
		if entry == "" {
			continue
		}
		g, err := parseGroup(entry)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func parseGroup(entry string) (g group, err error) {
	if len(entry) < 3 {
		return g, fmt.Errorf("basemod: malformed MM group %q", entry)
	}
	g.canonical = pileup.UpperBase(entry[0])
	switch g.canonical {
	case 'A', 'C', 'G', 'T', 'N':
	case 'U':
		g.canonical = 'T'
	default:
		return g, fmt.Errorf("basemod: unknown canonical base in MM group %q", entry)
	}
	g.strand = entry[1]
	if g.strand != '+' && g.strand != '-' {
		return g, fmt.Errorf("basemod: unknown strand in MM group %q", entry)
	}
	rest := entry[2:]
	end := strings.IndexAny(rest, ",.?")
	if end < 0 {
		end = len(rest)
	}
	codes := rest[:end]
	rest = rest[end:]
	switch {
	case codes == "":
		return g, fmt.Errorf("basemod: MM group %q has no modification code", entry)
	case codes[0] >= '0' && codes[0] <= '9':
		if _, err := strconv.Atoi(codes); err != nil {
			return g, fmt.Errorf("basemod: bad ChEBI code in MM group %q", entry)
		}
		g.codes = []string{codes}
	default:
		for i := 0; i < len(codes); i++ {
			if codes[i] < 'a' || codes[i] > 'z' {
				return g, fmt.Errorf("basemod: bad modification code in MM group %q", entry)
			}
			g.codes = append(g.codes, codes[i:i+1])
		}
	}
	if rest != "" && (rest[0] == '.' || rest[0] == '?') {
		rest = rest[1:]
	}
	if rest == "" {
		return g, nil
	}
	if rest[0] != ',' {
		return g, fmt.Errorf("basemod: malformed MM group %q", entry)
	}
	for _, field := range strings.Split(rest[1:], ",") {
		delta, err := strconv.Atoi(field)
		if err != nil || delta < 0 {
			return g, fmt.Errorf("basemod: bad skip count %q in MM group %q", field, entry)
		}
		g.deltas = append(g.deltas, delta)
	}
	return g, nil
}
