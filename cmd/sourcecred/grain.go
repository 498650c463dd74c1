package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/config"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
	"github.com/sourcecred/sourcecred-go/internal/logger"
)

var grainCmd = &cobra.Command{
	Use:   "grain",
	Short: "Distribute grain for newly finished cred intervals",
	RunE: func(cmd *cobra.Command, args []string) error {
		simulation, _ := cmd.Flags().GetBool("simulation")
		return runGrain(simulation, false)
	},
}

var grain2Cmd = &cobra.Command{
	Use:   "grain2",
	Short: "Distribute grain, printing every receipt",
	RunE: func(cmd *cobra.Command, args []string) error {
		simulation, _ := cmd.Flags().GetBool("simulation")
		return runGrain(simulation, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{grainCmd, grain2Cmd} {
		cmd.Flags().BoolP("simulation", "s", false,
			"Compute and print distributions without writing the ledger")
	}
}

// runGrain distributes grain for every cred interval newer than the last
// distribution, bounded by maxSimultaneousDistributions (most recent first,
// applied in chronological order).
func runGrain(simulation, verbose bool) error {
	l, storage, err := openLedger()
	if err != nil {
		return err
	}

	grainCfg, err := config.LoadGrainConfig(cfg.GrainConfigPath())
	if err != nil {
		return err
	}
	if len(grainCfg.AllocationPolicies) == 0 {
		fmt.Println("No allocation policies configured; nothing to distribute.")
		return nil
	}

	history, err := loadCredHistory(cfg.CredHistoryPath())
	if err != nil {
		return err
	}

	// Only active accounts may receive grain; participants who never
	// activated (or are unknown to the ledger) are excluded up front so one
	// of them cannot abort the whole round.
	history = l.ActiveParticipants(history)
	if len(history.Participants) == 0 {
		fmt.Println("No active participants in the cred history; nothing to distribute.")
		return nil
	}

	pending := pendingIntervals(history, l.LastDistributionTimestamp(),
		grainCfg.MaxSimultaneousDistributions)
	if len(pending) == 0 {
		fmt.Println("No undistributed cred intervals; nothing to do.")
		return nil
	}

	names := nameIndex(l)
	for _, intervalIdx := range pending {
		dist, err := allocation.ComputeDistribution(
			grainCfg.AllocationPolicies,
			history.Prefix(intervalIdx+1),
			l.LifetimePaid(),
		)
		if err != nil {
			return fmt.Errorf("computing distribution: %w", err)
		}
		if err := l.DistributeGrain(dist); err != nil {
			return fmt.Errorf("applying distribution: %w", err)
		}
		printDistribution(dist, names, verbose)
	}

	if simulation {
		fmt.Println("Simulation mode: ledger not written.")
		return nil
	}
	if err := storage.Write(l); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	logger.Info("Distributed grain",
		zap.Int("distributions", len(pending)),
		zap.String("ledger", storage.Path()),
	)
	return nil
}

// pendingIntervals returns the indices of intervals newer than lastDistributed
// in chronological order. When max > 0 only the most recent max are kept.
func pendingIntervals(history allocation.CredHistory, lastDistributed int64, max int) []int {
	var pending []int
	for idx, end := range history.IntervalEndsMs {
		if end > lastDistributed {
			pending = append(pending, idx)
		}
	}
	if max > 0 && len(pending) > max {
		pending = pending[len(pending)-max:]
	}
	return pending
}

func loadCredHistory(path string) (allocation.CredHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return allocation.CredHistory{}, fmt.Errorf("reading cred history: %w", err)
	}
	history, err := allocation.CredHistoryParser().ParseJSON(data)
	if err != nil {
		return allocation.CredHistory{}, fmt.Errorf("parsing cred history %s: %w", path, err)
	}
	return history, nil
}

func nameIndex(l *ledger.Ledger) map[identity.Id]string {
	out := make(map[identity.Id]string)
	for _, ident := range l.Identities() {
		out[ident.ID] = ident.Name.String()
	}
	return out
}

func printDistribution(dist allocation.Distribution, names map[identity.Id]string, verbose bool) {
	totals := make(map[identity.Id]grain.Grain)
	var order []identity.Id
	for _, alloc := range dist.Allocations {
		if verbose {
			fmt.Printf("%s allocation (budget %s):\n",
				alloc.Policy.Type, alloc.Policy.Budget.Format(2))
		}
		for _, r := range alloc.Receipts {
			if verbose {
				fmt.Printf("  %-24s %s\n", displayName(names, r.ID), r.Amount.Format(2))
			}
			if _, seen := totals[r.ID]; !seen {
				order = append(order, r.ID)
			}
			totals[r.ID] = totals[r.ID].Add(r.Amount)
		}
	}

	fmt.Printf("Distribution at credTimestamp %d:\n", dist.CredTimestamp)
	for _, id := range order {
		fmt.Printf("  %-24s %s\n", displayName(names, id), totals[id].Format(2))
	}
}

func displayName(names map[identity.Id]string, id identity.Id) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.String()
}
