package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/packetforge/aclc/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Args:  cobra.NoArgs,
	Short: "Compile a rule file and print its compiled table sizes",
	RunE:  runStats,
}

var statsRulesPath string

func init() {
	statsCmd.Flags().StringVar(&statsRulesPath, "rules", "", "path to a rule file (required)")
	_ = statsCmd.MarkFlagRequired("rules")
}

func runStats(cmd *cobra.Command, args []string) error {
	collectors := metrics.NewCollectors(prometheus.NewRegistry())

	filter, actions, err := loadAndCompile(statsRulesPath, 0, collectors)
	if err != nil {
		logger.Error().Err(err).Msg("compile failed")
		return err
	}

	labels := [...]string{"src-net x dst-net hi", "src-net x dst-net lo", "src-port x dst-port", "net-combine", "final"}
	fmt.Printf("named actions: %d\n", len(actions))
	for i, size := range filter.TableSizes() {
		fmt.Printf("  %-24s %d cells\n", labels[i], size)
	}
	return nil
}
