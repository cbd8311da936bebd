// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wodmix/internal/discovery"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List discovery backends and whether they are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig().Discovery

		fmt.Fprintf(os.Stdout, "%-12s  %-5s  %s\n", "Backend", "Batch", "Status")
		for _, name := range discovery.Names() {
			b, err := discovery.New(name, cfg)
			if err != nil {
				fmt.Fprintf(os.Stdout, "%-12s  %-5s  unavailable: %v\n", name, "-", err)
				continue
			}
			_, batch := discovery.SupportsBatch(b)
			status := "ready"
			if name == cfg.Backend {
				status += " (default)"
			}
			fmt.Fprintf(os.Stdout, "%-12s  %-5t  %s\n", name, batch, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
