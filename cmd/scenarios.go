package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ttft-sim/ttft-sim/sim"
)

// scenariosCmd lists the preset battery
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List scenario presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, sc := range sim.Scenarios() {
			fmt.Printf("%-14s %s\n", sc.Name, sc.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
