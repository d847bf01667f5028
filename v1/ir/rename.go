// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"strconv"
	"strings"
)

// RenameTemps implements spec §4.8 "Temp renaming": a two-pass renamer
// that collects the defs of function-local temps (those with localPrefix,
// not already of the renamed form %t<digits>), assigns stable names
// %t0, %t1, … in visitation order, and rewrites every use. Labels,
// parameters, and non-local names (e.g. %t-prefixed names already
// produced by a prior rename pass) are left untouched, which is what
// makes a second application of RenameTemps a no-op — spec property R1.
func RenameTemps(f *Function) {
	mapping := make(map[string]string)
	next := 0

	f.AllInstrs(func(_ *Block, _ int, instr Instr) {
		dst, ok := instr.Def()
		if !ok || !isLocalCandidate(dst) {
			return
		}
		if _, seen := mapping[dst]; seen {
			return
		}
		mapping[dst] = newRenamedTemp(&next)
	})

	f.AllInstrs(func(_ *Block, _ int, instr Instr) {
		instr.Rename(mapping)
	})
}

func isLocalCandidate(name string) bool {
	if !strings.HasPrefix(name, localPrefix) {
		return false
	}
	return !isRenamedForm(name)
}

// isRenamedForm reports whether name already has the stable %t<digits>
// shape a prior RenameTemps pass produces.
func isRenamedForm(name string) bool {
	if !strings.HasPrefix(name, "%t") {
		return false
	}
	digits := name[2:]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func newRenamedTemp(next *int) string {
	n := *next
	*next++
	return "%t" + strconv.Itoa(n)
}
