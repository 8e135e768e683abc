package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"causality/core"
)

func main() {
	rootCmd := &cobra.Command{Use: "causalityctl"}
	rootCmd.AddCommand(machineCmd())
	rootCmd.AddCommand(storeCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func machineCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "machine"}
	run := &cobra.Command{
		Use:   "run",
		Short: "execute an empty program against a fresh machine",
		Run: func(cmd *cobra.Command, args []string) {
			m := core.NewMachine(core.DefaultMachineConfig(), nil, nil)
			result, err := m.Execute(nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "execute: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("result: %s, steps: %d\n", result.Kind, len(result.Trace.Steps))
		},
	}
	cmd.AddCommand(run)
	return cmd
}

func storeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "store"}
	stat := &cobra.Command{
		Use:   "stat",
		Short: "report effect store counters against a fresh in-memory store",
		Run: func(cmd *cobra.Command, args []string) {
			s := core.NewContentStore(core.NewMemoryKV(), nil, nil)
			fmt.Printf("store ready, 0 effects stored (%T)\n", s)
		},
	}
	cmd.AddCommand(stat)
	return cmd
}
