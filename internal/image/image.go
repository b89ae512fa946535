// Package image loads one or two fixed-size Diablo disk images into
// memory, optionally decompressing a ".Z" source through an external
// zcat subprocess, and saving it to a "~"-suffixed copy of each source.
package image

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/io-core/altofs/internal/avmtypes"
)

// Image is the AVM's single owned in-memory buffer: the raw bytes of one
// or two disk images concatenated in VDA order, each page a
// avmtypes.RecordBytes-byte record.
type Image struct {
	Raw        []byte
	DoubleDisk bool
	names      [2]string
}

// NPages returns the number of addressable pages across the whole image.
func (im *Image) NPages() int {
	if im.DoubleDisk {
		return 2 * avmtypes.NPages
	}
	return avmtypes.NPages
}

// Page returns the raw record bytes for vda. It panics if vda is out of
// range; callers are expected to have checked bounds already (an
// out-of-range page index is a programming error, not a recoverable
// condition.
func (im *Image) Page(vda int) []byte {
	off := vda * avmtypes.RecordBytes
	return im.Raw[off : off+avmtypes.RecordBytes]
}

// Load parses a comma-separated image specification "name0[,name1]".
// A name ending in ".Z" is read by piping it through an
// external zcat process; otherwise it is opened directly. Reads that
// short-return fail the load.
func Load(spec string) (*Image, error) {
	parts := strings.SplitN(spec, ",", 2)
	im := &Image{DoubleDisk: len(parts) == 2}

	buf0, err := readUnit(parts[0])
	if err != nil {
		return nil, fmt.Errorf("image: loading %s: %w", parts[0], err)
	}
	im.names[0] = parts[0]
	im.Raw = buf0

	if im.DoubleDisk {
		buf1, err := readUnit(parts[1])
		if err != nil {
			return nil, fmt.Errorf("image: loading %s: %w", parts[1], err)
		}
		im.names[1] = parts[1]
		im.Raw = append(im.Raw, buf1...)
	}
	return im, nil
}

func readUnit(name string) ([]byte, error) {
	want := avmtypes.NPages * avmtypes.RecordBytes
	var r io.Reader
	if strings.HasSuffix(name, ".Z") {
		cmd := exec.Command("zcat", name)
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("zcat %s: %w", name, err)
		}
		r = bytes.NewReader(out)
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, fmt.Errorf("short read: got %d of %d bytes: %w", n, want, err)
	}
	return buf, nil
}

// Save writes each unit of the image to a file named after its source:
// any ".Z" suffix is stripped (the save path never recompresses) and a
// "~" suffix is appended. The source files themselves are not rewritten.
func (im *Image) Save() error {
	unit := avmtypes.NPages * avmtypes.RecordBytes
	if err := saveUnit(im.names[0], im.Raw[:unit]); err != nil {
		return err
	}
	if im.DoubleDisk {
		if err := saveUnit(im.names[1], im.Raw[unit:2*unit]); err != nil {
			return err
		}
	}
	return nil
}

func saveUnit(name string, data []byte) error {
	out := strings.TrimSuffix(name, ".Z") + "~"
	return os.WriteFile(out, data, 0644)
}
