// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package vcf

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// checkPath rejects paths that the record reader does not open as plain local
// files.  It treats any path containing "http" as a URL and any path starting
// with "stdin" as standard input.
func checkPath(path string) error {
	if strings.Contains(path, "://") || strings.Contains(path, "http") || strings.HasPrefix(path, "stdin") {
		return errors.E(errors.Invalid, "vcf: only local paths are supported:", path)
	}
	return nil
}

// checkFile scans the VCF at path and returns an error naming the first line
// the record reader would fail on.
func checkFile(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "vcf: cannot open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	br := bufio.NewReader(in.Reader(ctx))
	if magic, _ := br.Peek(3); string(magic) == "BZh" {
		return errors.E(errors.NotSupported, "vcf: bzip2 input is not supported:", path)
	}
	r, _ := compress.NewReader(br)
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()

	c := checker{ids: map[string]map[string]bool{}, inHeader: true}
	lr := bufio.NewReaderSize(r, 1<<16)
	for {
		line, rerr := lr.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return errors.E(rerr, "vcf: read", path)
		}
		if rerr == io.EOF && line == "" {
			break
		}
		c.lineNo++
		if rerr == io.EOF {
			return errors.E(errors.Invalid, path+":"+strconv.Itoa(c.lineNo)+":", "last line does not end with a newline")
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if cerr := c.checkLine(line); cerr != nil {
			return errors.E(errors.Invalid, path+":"+strconv.Itoa(c.lineNo)+":", cerr)
		}
	}
	if c.inHeader {
		if cerr := c.endHeader(); cerr != nil {
			return errors.E(errors.Invalid, path+":", cerr)
		}
	}
	return nil
}

var headerTypes = map[string]bool{
	"Integer":   true,
	"Float":     true,
	"Flag":      true,
	"Character": true,
	"String":    true,
}

type checker struct {
	lineNo   int
	inHeader bool
	// lastHeader is the final line of the leading '#' block.
	lastHeader string
	// nCols is the column count of the #CHROM line, or 0 if there is none.
	nCols int
	// ids holds the IDs seen so far, keyed by header label.
	ids map[string]map[string]bool
}

func (c *checker) checkLine(line string) error {
	if c.inHeader {
		if strings.HasPrefix(line, "#") {
			c.lastHeader = line
			return c.checkHeaderLine(line)
		}
		c.inHeader = false
		if err := c.endHeader(); err != nil {
			return err
		}
	} else if strings.HasPrefix(line, "#") {
		return nil
	}
	return c.checkRecord(strings.Split(line, "\t"))
}

func (c *checker) checkHeaderLine(line string) error {
	if len(line) < 2 {
		return errors.New("truncated header line")
	}
	label := strings.Split(line[2:], "=")[0]
	switch label {
	case "fileformat":
		if !strings.Contains(line, "=") {
			return errors.New("fileformat line has no value")
		}
	case "contig", "INFO", "FILTER", "FORMAT":
		start := strings.IndexByte(line, '<')
		if start == -1 || line[len(line)-1] != '>' {
			return errors.E("header line must have a field delimited by '<' and '>':", line)
		}
		var id string
		for _, f := range strings.Split(line[start+1:len(line)-1], ",") {
			switch {
			case strings.HasPrefix(f, "ID="):
				id = f[3:]
			case label == "contig" && strings.HasPrefix(f, "length="):
				if _, err := strconv.Atoi(f[7:]); err != nil {
					return errors.E("invalid contig length", f[7:])
				}
			case label != "contig" && strings.HasPrefix(f, "Type="):
				if !headerTypes[f[5:]] {
					return errors.E("unknown header type", f[5:])
				}
			}
		}
		if c.ids[label] == nil {
			c.ids[label] = map[string]bool{}
		}
		if c.ids[label][id] {
			return errors.E("duplicate", label, "ID", id)
		}
		c.ids[label][id] = true
	}
	return nil
}

// endHeader checks the column line that closes the leading header block.
func (c *checker) endHeader() error {
	if c.lastHeader == "" {
		return nil
	}
	cols := strings.Split(c.lastHeader, "\t")
	if cols[0] == "#CHROM" {
		c.nCols = len(cols)
	}
	if len(cols) < 10 {
		return nil
	}
	if cols[0] != "#CHROM" {
		return errors.New("final header line must begin with #CHROM")
	}
	seen := map[string]bool{}
	for _, s := range cols[9:] {
		if seen[s] {
			return errors.E("duplicate sample name", s)
		}
		seen[s] = true
	}
	return nil
}

func (c *checker) checkRecord(cols []string) error {
	if len(cols) < 8 {
		return errors.E("expected at least 8 columns, got", strconv.Itoa(len(cols)))
	}
	if c.nCols > 0 && len(cols) != c.nCols {
		return errors.E("expected", strconv.Itoa(c.nCols), "columns to match the #CHROM line, got", strconv.Itoa(len(cols)))
	}
	pos, err := strconv.Atoi(cols[1])
	if err != nil || pos < 1 {
		return errors.E("invalid POS", cols[1])
	}
	if cols[3] == "" {
		return errors.New("empty REF")
	}
	if cols[5] != "." {
		if _, err := strconv.ParseFloat(cols[5], 64); err != nil {
			return errors.E("invalid QUAL", cols[5])
		}
	}
	if len(cols) < 9 {
		return nil
	}
	format := strings.Split(cols[8], ":")
	if format[0] == "." {
		return nil
	}
	for _, key := range format[1:] {
		if key == "GT" {
			return errors.E("GT must be the first FORMAT key:", cols[8])
		}
	}
	if format[0] != "GT" {
		return nil
	}
	for _, sample := range cols[9:] {
		gt := strings.Split(sample, ":")[0]
		if !validGenotype(gt) {
			return errors.E("invalid genotype", gt)
		}
	}
	return nil
}

// validGenotype reports whether gt is a '/' or '|' separated list of allele
// indexes, each either "." or an int16.
func validGenotype(gt string) bool {
	if gt == "." || gt == "./." {
		return true
	}
	start := 0
	for i := 0; i <= len(gt); i++ {
		if i < len(gt) && gt[i] != '/' && gt[i] != '|' {
			continue
		}
		a := gt[start:i]
		if a != "." {
			if _, err := strconv.ParseInt(a, 10, 16); err != nil {
				return false
			}
		}
		start = i + 1
	}
	return true
}
