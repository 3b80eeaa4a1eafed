package bamprovider

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. If Index=="", it
	// defaults to path + ".bai".
	Index string
}

// Region is a genomic interval on one reference.  Start and End are 0-based
// and half-open.
type Region struct {
	RefName    string
	Start, End int
}

func (r Region) String() string {
	// Rendered 1-based and closed, as samtools would print it.
	return fmt.Sprintf("%s:%d-%d", r.RefName, r.Start+1, r.End)
}

// Provider allows reading a BAM file in parallel. Thread safe.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the records overlapping the
	// region, in coordinate order.  Setup failures (unknown reference,
	// unreadable file or index, failed seek) are reported by the iterator's
	// Err and Close.
	//
	// REQUIRES: Close has not been called.
	NewIterator(region Region) Iterator

	// Close must be called exactly once. It returns any error encountered
	// while opening the header or releasing file handles.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in a particular genomic range, in
// coordinate order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.  The record is valid
	// until the next call to Scan.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// NewProvider creates a Provider for the BAM file at "path".  Both path and
// the index path may be S3 URLs.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
	}
	return &BAMProvider{Path: path, Index: opts.Index}
}

// overlaps reports whether rec's alignment intersects [start, end).  Records
// that consume no reference bases are treated as covering their own Pos.
func overlaps(rec *sam.Record, start, end int) bool {
	recEnd := rec.End()
	if recEnd <= rec.Pos {
		recEnd = rec.Pos + 1
	}
	return rec.Pos < end && recEnd > start
}

// findRef returns the reference called name in h, or nil.
func findRef(h *sam.Header, name string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == name {
			return ref
		}
	}
	return nil
}

// failedIterator is an Iterator that could not be set up.  It yields nothing
// and reports err from Err and Close.
type failedIterator struct {
	err error
}

func (i *failedIterator) Scan() bool          { return false }
func (i *failedIterator) Record() *sam.Record { panic("Record called on a failed iterator") }
func (i *failedIterator) Err() error          { return i.err }
func (i *failedIterator) Close() error        { return i.err }
