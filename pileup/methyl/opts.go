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
	"runtime"
	"strconv"

	"github.com/grailbio/base/errors"
)

// Uncallable-read policies.
const (
	// UncallableAlt counts reads that do not cover the site as alternate.
	UncallableAlt = "alt"
	// UncallableSeparate reports them in their own bucket.
	UncallableSeparate = "separate"
)

// Output formats.
const (
	FormatTSV    = "tsv"
	FormatTSVBgz = "tsv-bgz"
)

type Opts struct {
	// Commandline options.
	Window      int
	Parallelism int
	FlagExclude int
	MinMapQ     int
	ModCode     string
	Uncallable  string
	Format      string
}

var DefaultOpts = Opts{
	Window:      2000,
	Parallelism: 0,
	FlagExclude: 0x900,
	MinMapQ:     0,
	ModCode:     "",
	Uncallable:  UncallableAlt,
	Format:      FormatTSV,
}

// Validate checks opts and fills in defaults that depend on the machine.
func (opts *Opts) Validate() error {
	if opts.Window < 0 {
		return errors.E(errors.Invalid, "methyl: window must be nonnegative, got", strconv.Itoa(opts.Window))
	}
	if opts.MinMapQ < 0 || opts.MinMapQ > 255 {
		return errors.E(errors.Invalid, "methyl: min-mapq must be in [0, 255], got", strconv.Itoa(opts.MinMapQ))
	}
	if opts.FlagExclude < 0 || opts.FlagExclude > 0xffff {
		return errors.E(errors.Invalid, "methyl: invalid flag-exclude", strconv.Itoa(opts.FlagExclude))
	}
	switch opts.Uncallable {
	case "":
		opts.Uncallable = UncallableAlt
	case UncallableAlt, UncallableSeparate:
	default:
		return errors.E(errors.Invalid, "methyl: unknown uncallable policy:", opts.Uncallable)
	}
	switch opts.Format {
	case "":
		opts.Format = FormatTSV
	case FormatTSV, FormatTSVBgz:
	default:
		return errors.E(errors.Invalid, "methyl: unknown output format:", opts.Format)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	return nil
}
