// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package vcf reads the variant sites of a VCF file.
package vcf

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	gvcf "github.com/vertgenlab/gonomics/vcf"
)

// Site is one VCF record reduced to its coordinates and alleles.
type Site struct {
	Chrom string
	// Pos is 1-based.
	Pos int
	Ref string
	// Alt is the first ALT allele, or "" if the record has none.
	Alt string
}

// ReadSites returns the records of the VCF file at path, in file order.  The
// file must be local and may be gzipped.  A malformed file yields an
// errors.Invalid error naming the offending line.
func ReadSites(ctx context.Context, path string) ([]Site, error) {
	if path == "" {
		return nil, errors.E(errors.Invalid, "vcf: no path given")
	}
	if err := checkPath(path); err != nil {
		return nil, err
	}
	if _, err := file.Stat(ctx, path); err != nil {
		return nil, errors.E(err, "vcf: cannot open", path)
	}
	if err := checkFile(ctx, path); err != nil {
		return nil, err
	}
	records, _ := gvcf.GoReadToChan(path)
	var sites []Site
	for v := range records {
		sites = append(sites, fromRecord(v))
	}
	log.Printf("vcf: read %d sites from %s", len(sites), path)
	return sites, nil
}

func fromRecord(v gvcf.Vcf) Site {
	s := Site{Chrom: v.Chr, Pos: v.Pos, Ref: v.Ref}
	if len(v.Alt) > 0 && v.Alt[0] != "." {
		s.Alt = v.Alt[0]
	}
	return s
}
