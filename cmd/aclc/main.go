// Command aclc is the ACL compiler's control-plane CLI: compile a rule
// file, report the compiled filter's table sizes, or replay a single
// 5-tuple through it for interactive debugging. It holds no business
// logic of its own - everything it prints comes straight out of the
// acl/rulefile/metrics packages.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aclc",
	Short: "Compile and inspect IPv6 ACL rule sets",
	Long: `aclc compiles an ordered IPv6 5-tuple rule set into a constant-time
packet classifier and lets you inspect or exercise the result without
standing up a full pipeline.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	cobra.OnInitialize(func() {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	})

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
