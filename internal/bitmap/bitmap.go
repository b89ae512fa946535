// Package bitmap implements a 1-bit-per-page allocation bitmap stored as
// a run of big-endian words inside the DiskDescriptor file.
package bitmap

import "github.com/io-core/altofs/internal/codec"

// Table is the in-memory free-page bitmap. Words holds disk_bt_size words;
// bit i corresponds to VDA i: word i/16, bit (15 - i%16) within that word
// (big-endian within the word).
type Table struct {
	Words []uint16
	Dirty bool
}

// New allocates a table of n words, all bits clear (all pages marked
// free; callers populate it from a load or a fix pass).
func New(n int) *Table {
	return &Table{Words: make([]uint16, n)}
}

// BitCount returns the total number of addressable bits.
func (t *Table) BitCount() int {
	return len(t.Words) * 16
}

// Get reports whether page p is marked free (bit == 0) or allocated
// (bit == 1). Out-of-range p is treated as allocated (returns 1).
func (t *Table) Get(p int) int {
	if p < 0 || p >= t.BitCount() {
		return 1
	}
	word := t.Words[p/16]
	bit := 15 - uint(p%16)
	return int((word >> bit) & 1)
}

// Set sets or clears page p's bit. Out-of-range p is a silent no-op.
// Dirty is set iff the bit actually changed.
func (t *Table) Set(p int, v int) {
	if p < 0 || p >= t.BitCount() {
		return
	}
	idx := p / 16
	bit := 15 - uint(p%16)
	old := (t.Words[idx] >> bit) & 1
	if v != 0 {
		t.Words[idx] |= 1 << bit
	} else {
		t.Words[idx] &^= 1 << bit
	}
	if int(old) != v {
		t.Dirty = true
	}
}

// CountFree returns the number of pages whose bit is clear.
func (t *Table) CountFree() int {
	free := 0
	for p := 0; p < t.BitCount(); p++ {
		if t.Get(p) == 0 {
			free++
		}
	}
	return free
}

// Decode reads n words of big-endian bit-table storage from buf into a new
// Table.
func Decode(buf []byte, n int) *Table {
	t := New(n)
	for i := 0; i < n; i++ {
		t.Words[i] = codec.GetWord(buf, i*2)
	}
	return t
}

// Encode writes the table's words as big-endian storage into buf, which
// must be at least len(Words)*2 bytes.
func (t *Table) Encode(buf []byte) {
	for i, w := range t.Words {
		codec.PutWord(buf, i*2, w)
	}
}
