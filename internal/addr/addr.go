// Package addr implements the VDA <-> RDA bijection.
package addr

import "github.com/io-core/altofs/internal/avmtypes"

const secsPerCyl = avmtypes.NHeads * avmtypes.NSecs

// VDA is a linear page index. For a single-disk image
// 0 <= VDA < avmtypes.NPages; for a double-disk image
// 0 <= VDA < 2*avmtypes.NPages.
type VDA int

// RDA is the 16-bit raw disk address: dp1flag (bit 1), head (bit 2),
// cylinder (bits 3..11), sector (bits 12..15).
type RDA uint16

// RDAToVDA maps a raw disk address to a virtual disk address. rda == 0 is
// the end-of-chain / not-allocated sentinel and also legitimately maps to
// VDA 0; callers must check for the sentinel themselves before relying on
// this mapping.
func RDAToVDA(rda RDA) VDA {
	dp1flag := int(rda>>1) & 1
	head := int(rda>>2) & 1
	cyl := int(rda>>3) & 0x1ff
	sector := int(rda>>12) & 0xf
	return VDA(dp1flag*avmtypes.NPages + cyl*secsPerCyl + head*avmtypes.NSecs + sector)
}

// VDAToRDA is RDAToVDA's inverse.
func VDAToRDA(vda VDA) RDA {
	dp1flag := 0
	page := int(vda)
	if page >= avmtypes.NPages {
		dp1flag = 1
		page -= avmtypes.NPages
	}
	cyl := page / secsPerCyl
	head := (page / avmtypes.NSecs) % avmtypes.NHeads
	sector := page % avmtypes.NSecs

	var rda int
	rda |= dp1flag << 1
	rda |= head << 2
	rda |= cyl << 3
	rda |= sector << 12
	return RDA(rda)
}
