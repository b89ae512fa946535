// Package fsck implements the volume's reconciliation pass: given a
// descriptor/bit-table mismatch, it rebuilds the bit table and repairs
// per-page label fields by
// walking every non-deleted SysDir entry's chain, reporting what it
// changes through a logging.Logger side channel rather than printing
// inline.
package fsck

import (
	"github.com/io-core/altofs/internal/addr"
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/chain"
	"github.com/io-core/altofs/internal/logging"
	"github.com/io-core/altofs/internal/sysdir"
)

// Run rebuilds e.BT in place and corrects e.Desc.FreePages, walking every
// non-deleted record in dir. It returns the number of labels it had to
// correct, purely for test/diagnostic visibility.
func Run(e *chain.Engine, dir *sysdir.Dir, log *logging.Logger) int {
	fresh := bitmap.New(len(e.BT.Words))
	// Bits past the image's last page address no page; keep them set so
	// they are never counted free.
	for p := e.Img.NPages(); p < fresh.BitCount(); p++ {
		fresh.Set(p, 1)
	}
	fixes := 0

	for _, rec := range dir.Records {
		if rec.Deleted() {
			continue
		}
		fixes += walkAndFix(e, int(rec.FilePtr.LeaderVDA), rec.Filename, fresh, log)
	}

	*e.BT = *fresh
	free := e.BT.CountFree()
	if int(e.Desc.FreePages) != free {
		log.Warnf("fsck: free_pages %d -> %d", e.Desc.FreePages, free)
		e.Desc.FreePages = uint16(free)
	}
	return fixes
}

func walkAndFix(e *chain.Engine, leaderVDA int, name string, bt *bitmap.Table, log *logging.Logger) int {
	fixes := 0
	ll := e.Label(leaderVDA)

	if ll.FilePage != 0 || ll.PrevRDA != 0 {
		log.Warnf("fsck: %s: leader page %d has stray filepage/prev_rda, clearing", name, leaderVDA)
		ll.FilePage = 0
		ll.PrevRDA = 0
		e.SetLabel(leaderVDA, ll)
		fixes++
	}
	bt.Set(leaderVDA, 1)

	wantFidFile, wantFidDir, wantFidID := ll.FidFile, ll.FidDir, ll.FidID
	prevVDA := leaderVDA
	vda := chain.Next(ll)
	filepage := uint16(1)

	for vda >= 0 {
		bt.Set(vda, 1)
		l := e.Label(vda)
		changed := false

		if l.FidFile != wantFidFile || l.FidDir != wantFidDir || l.FidID != wantFidID {
			l.FidFile, l.FidDir, l.FidID = wantFidFile, wantFidDir, wantFidID
			changed = true
		}
		if l.FilePage != filepage {
			l.FilePage = filepage
			changed = true
		}
		wantPrevRDA := uint16(addr.VDAToRDA(addr.VDA(prevVDA)))
		if l.PrevRDA != wantPrevRDA {
			l.PrevRDA = wantPrevRDA
			changed = true
		}

		next := chain.Next(l)
		isLast := next < 0
		if !isLast && l.NBytes != avmtypes.PageSz {
			l.NBytes = avmtypes.PageSz
			changed = true
		} else if isLast && l.NBytes > avmtypes.PageSz {
			l.NBytes = avmtypes.PageSz
			changed = true
		}

		if changed {
			log.Warnf("fsck: %s: page %d label corrected", name, vda)
			e.SetLabel(vda, l)
			fixes++
		}

		prevVDA = vda
		vda = next
		filepage++
	}
	return fixes
}
