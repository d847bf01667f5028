// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import "fmt"

// InsertPhiNodes implements spec §4.8 "Phi insertion". It splits f's body
// into basic blocks by label (already true of this IR's representation),
// builds predecessor sets from each block's terminator, and for every
// block with ≥2 predecessors that does not already begin with a Phi and
// whose last local definitions disagree, inserts a Phi immediately after
// the block's label and rewrites subsequent same-block uses of the
// disagreeing names to the phi's destination.
//
// Lower already produces the phi for the two documented control-flow
// shapes (if/else and two-arm match) directly, so in practice this pass
// is a no-op on Lower's own output; it exists so hand-built or
// externally-merged IR gets the same conservative treatment spec.md §8's
// S7 scenario describes, and so a second application remains idempotent.
func InsertPhiNodes(f *Function) {
	preds := predecessorsOf(f)

	for bi, b := range f.Blocks {
		ps := preds[b.Label]
		if len(ps) < 2 {
			continue
		}
		if len(b.Instrs) > 0 {
			if _, merged := b.Instrs[0].(*Phi); merged {
				continue
			}
		}
		defs := make(map[string]string, len(ps)) // predecessor label -> last local def
		for _, p := range ps {
			if d, ok := lastLocalDef(f.Block(p)); ok {
				defs[p] = d
			}
		}
		if allSame(defs) {
			continue
		}

		incoming := make([]PhiIncoming, 0, len(ps))
		stale := make(map[string]bool)
		for _, p := range ps {
			d, ok := defs[p]
			if !ok {
				continue
			}
			incoming = append(incoming, PhiIncoming{Val: d, Label: p})
			stale[d] = true
		}
		dst := fmt.Sprintf("%%phi_%s_%d", f.Name, bi)
		phi := &Phi{Dst: dst, Incoming: incoming}

		rewriteBlockUses(b, stale, dst)
		b.Instrs = append([]Instr{phi}, b.Instrs...)
	}
}

func predecessorsOf(f *Function) map[string][]string {
	preds := make(map[string][]string)
	for _, b := range f.Blocks {
		switch t := b.Term.(type) {
		case *Br:
			preds[t.Label] = append(preds[t.Label], b.Label)
		case *BrCond:
			preds[t.ThenLabel] = append(preds[t.ThenLabel], b.Label)
			preds[t.ElseLabel] = append(preds[t.ElseLabel], b.Label)
		}
	}
	return preds
}

// lastLocalDef returns the destination of the last instruction in b that
// defines a function-local candidate temp (pre- or post-rename), i.e. the
// block's final contribution to that value before falling through to its
// successor.
func lastLocalDef(b *Block) (string, bool) {
	if b == nil {
		return "", false
	}
	for i := len(b.Instrs) - 1; i >= 0; i-- {
		if d, ok := b.Instrs[i].Def(); ok && (isLocalCandidate(d) || isRenamedForm(d)) {
			return d, true
		}
	}
	return "", false
}

func allSame(defs map[string]string) bool {
	first := ""
	seen := false
	for _, d := range defs {
		if !seen {
			first = d
			seen = true
			continue
		}
		if d != first {
			return false
		}
	}
	return true
}

// rewriteBlockUses rewrites every use of a stale name (one of the
// disagreeing predecessor defs) in b's own instructions and terminator to
// dst, since those names no longer dominate b once the phi stands in for
// them.
func rewriteBlockUses(b *Block, stale map[string]bool, dst string) {
	mapping := make(map[string]string, len(stale))
	for name := range stale {
		mapping[name] = dst
	}
	for _, instr := range b.Instrs {
		instr.Rename(mapping)
	}
	if b.Term != nil {
		b.Term.Rename(mapping)
	}
}
