package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	acl "github.com/packetforge/aclc"
	"github.com/packetforge/aclc/metrics"
	"github.com/packetforge/aclc/rulefile"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Args:  cobra.NoArgs,
	Short: "Compile a rule file and report success or the first error",
	RunE:  runCompile,
}

var (
	compileRulesPath     string
	compileDefaultAction uint32
)

func init() {
	compileCmd.Flags().StringVar(&compileRulesPath, "rules", "", "path to a rule file (required)")
	compileCmd.Flags().Uint32Var(&compileDefaultAction, "default-action", 0, "action id reported for unmatched packets")
	_ = compileCmd.MarkFlagRequired("rules")
}

// loadAndCompile loads path and compiles it, recording the attempt's
// duration and each combining table's cell count against collectors.
func loadAndCompile(path string, defaultAction uint32, collectors *metrics.Collectors) (*acl.Filter, map[string]uint32, error) {
	rules, actions, err := rulefile.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}

	start := time.Now()
	filter, err := acl.Compile(rules, defaultAction)
	collectors.CompileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, fmt.Errorf("compiling %s: %w", path, err)
	}

	labels := [...]string{"net-hi", "net-lo", "ports", "net-combine", "final"}
	for i, size := range filter.TableSizes() {
		collectors.CompiledClasses.WithLabelValues(labels[i]).Set(float64(size))
	}

	return filter, actions, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	collectors := metrics.NewCollectors(prometheus.NewRegistry())

	filter, actions, err := loadAndCompile(compileRulesPath, compileDefaultAction, collectors)
	if err != nil {
		logger.Error().Err(err).Msg("compile failed")
		return err
	}

	logger.Info().
		Str("rules", compileRulesPath).
		Int("named_actions", len(actions)).
		Msg("compiled successfully")
	for i, size := range filter.TableSizes() {
		logger.Debug().Int("stage", i).Int("cells", size).Msg("table size")
	}
	return nil
}
