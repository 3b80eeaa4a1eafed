package bamprovider

import (
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// WriteIndexedBAM writes coordinate-sorted recs to a BAM file at path, and a
// matching BAI index at path + ".bai".  It exists for tests.
func WriteIndexedBAM(path string, header *sam.Header, recs []*sam.Record) (err error) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	if err != nil {
		out.Close(ctx)
		return err
	}
	for _, r := range recs {
		if err = w.Write(r); err != nil {
			w.Close()
			out.Close(ctx)
			return err
		}
	}
	if err = w.Close(); err != nil {
		out.Close(ctx)
		return err
	}
	if err = out.Close(ctx); err != nil {
		return err
	}

	// Re-read the file to learn each record's virtual offsets.
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return err
	}
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var idx bam.Index
	for {
		rec, e := r.Read()
		if e == io.EOF {
			break
		}
		if e != nil {
			return e
		}
		if e = idx.Add(rec, r.LastChunk()); e != nil {
			return e
		}
	}
	idxOut, err := file.Create(ctx, path+".bai")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, idxOut, &err)
	return bam.WriteIndex(idxOut.Writer(ctx), &idx)
}
