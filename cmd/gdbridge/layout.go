package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

var flagAllSlots bool

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the byte layout of the shared region",
	Long: `Print the byte offset, type and direction of every field in the shared
region. External consumers must map the region with exactly this layout:
4-byte native-endian fields, no padding.

By default only the first object slot is expanded; --all-slots prints
every slot.`,
	Run: runLayout,
}

func init() {
	layoutCmd.Flags().BoolVar(&flagAllSlots, "all-slots", false, "Expand every object slot")
}

func runLayout(_ *cobra.Command, _ []string) {
	fields := protocol.Layout()

	fmt.Printf("Region: %d bytes, %d words, %d object slots\n", protocol.Size, protocol.WordCount, protocol.MaxObjects)
	fmt.Println()
	fmt.Printf("  %-6s  %-26s  %-7s  %s\n", "Offset", "Field", "Type", "Direction")
	fmt.Printf("  %-6s  %-26s  %-7s  %s\n", "------", "-----", "----", "---------")

	skipped := false
	for _, f := range fields {
		if !flagAllSlots && strings.HasPrefix(f.Name, "objects[") && !strings.HasPrefix(f.Name, "objects[0]") {
			if !skipped {
				fmt.Printf("  %-6s  %-26s\n", "...", fmt.Sprintf("objects[1..%d]", protocol.MaxObjects-1))
				skipped = true
			}
			continue
		}
		fmt.Printf("  %-6d  %-26s  %-7s  %s\n", f.Offset, f.Name, f.Type, f.Direction)
	}
}
