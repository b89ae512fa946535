package avmtypes

// On-disk page record layout: pagenum, header, label, data, each a run of
// 16-bit big-endian words. A 1024-byte figure shows up in loose
// descriptions of the page, but the field-by-field word counts below
// (matching original_source/afs_types.h's afs_page_t) are authoritative;
// see DESIGN.md.
const (
	PageNumWords  = 1
	HeaderWords   = 2
	DataWords     = PageSz / 2 // 256
	RecordWords   = PageNumWords + HeaderWords + LabelWords + DataWords
	RecordBytes   = RecordWords * 2
	PageNumOffset = 0
	HeaderOffset  = PageNumOffset + PageNumWords*2
	LabelOffset   = HeaderOffset + HeaderWords*2
	DataOffset    = LabelOffset + LabelWords*2
)
