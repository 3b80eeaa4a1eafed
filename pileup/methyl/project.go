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
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/methylsite/encoding/basemod"
)

// ProjectModifications returns rec's modification calls placed on the
// reference, using the read->reference map m built by NewReadToRefMap.
//
// Calls on bases with no reference coordinate (soft clips, insertions) are
// dropped.  If modCode is nonempty, only calls with that code are kept.  A
// record whose MM/ML tags cannot be decoded contributes nothing.
func ProjectModifications(rec *sam.Record, m []int, modCode string) []ModObservation {
	calls, err := basemod.Decode(rec)
	if err != nil {
		log.Debug.Printf("%s: ignoring modification tags: %v", rec.Name, err)
		return nil
	}
	var obs []ModObservation
	for _, c := range calls {
		if modCode != "" && c.Code != modCode {
			continue
		}
		p := c.Pos + 1
		if p < 1 || p >= len(m) || m[p] == Unmapped {
			continue
		}
		obs = append(obs, ModObservation{RefPos: m[p], Prob: c.Prob()})
	}
	return obs
}
