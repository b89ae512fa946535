package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/io-core/altofs/internal/config"
	"github.com/io-core/altofs/internal/logging"
)

var (
	flagVerbose    bool
	flagForeground bool
	flagSingle     bool
	flagReadOnly   bool
)

var rootCmd = &cobra.Command{
	Use:     "altofs <mountpoint> <image>[,<image2>]",
	Short:   "Mount a Xerox Alto/Diablo disk image as a read/write filesystem",
	Version: "0.1.0",
	Args:    cobra.ExactArgs(2),
	RunE:    runMount,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagForeground, "foreground", "f", false, "run in the foreground (no effect: altofs never daemonizes)")
	rootCmd.PersistentFlags().BoolVarP(&flagSingle, "single-threaded", "s", false, "single-threaded serving (no effect: FUSE requests are served concurrently)")
	rootCmd.PersistentFlags().BoolVarP(&flagReadOnly, "read-only", "r", false, "reject mutating operations")
}

// Execute runs the CLI host, exiting 0 on success, 1 on a usage or IO
// error, 2 on a runtime-init failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "altofs: %v\n", err)
		if _, ok := err.(usageError); ok {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

type usageError struct{ error }

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return usageError{err}
	}
	cfg.MountPoint = args[0]
	cfg.ImageSpec = args[1]
	cfg.Verbose = cfg.Verbose || flagVerbose
	cfg.Foreground = cfg.Foreground || flagForeground
	cfg.SingleThreaded = cfg.SingleThreaded || flagSingle
	cfg.ReadOnly = cfg.ReadOnly || flagReadOnly

	level := logging.LevelInfo
	if cfg.Verbose {
		level = logging.LevelDebug
	}
	log := logging.New(os.Stderr, level)

	return mountAndServe(cfg, log)
}
