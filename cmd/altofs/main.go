// Command altofs mounts a Xerox Alto/Diablo disk image as a FUSE
// filesystem, backed by the internal/avm Alto Volume Manager.
package main

import "github.com/io-core/altofs/cmd"

func main() {
	cmd.Execute()
}
