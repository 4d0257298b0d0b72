// Units command: list the measurement units analyses can report in and
// convert between them.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/internal/units"
)

var (
	unitsConvertValue float64
	unitsConvertTo    string
	unitsArea         bool
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List measurement units or convert a metric value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if unitsConvertTo != "" {
			var converted float64
			var err error
			if unitsArea {
				converted, err = units.Area(unitsConvertValue, unitsConvertTo)
			} else {
				converted, err = units.Length(unitsConvertValue, unitsConvertTo)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%g %s\n", converted, unitsConvertTo)
			return nil
		}

		printUnitTable("Length units", units.LengthNames())
		printUnitTable("Area units", units.AreaNames())
		return nil
	},
}

func printUnitTable(title string, names map[string]string) {
	fmt.Println(title + ":")
	display := make([]string, 0, len(names))
	for name := range names {
		display = append(display, name)
	}
	sort.Strings(display)
	for _, name := range display {
		fmt.Printf("  %-20s %s\n", names[name], name)
	}
}

func init() {
	unitsCmd.Flags().Float64Var(&unitsConvertValue, "value", 0, "value in base units (meters or square meters)")
	unitsCmd.Flags().StringVar(&unitsConvertTo, "to", "", "target unit key")
	unitsCmd.Flags().BoolVar(&unitsArea, "area", false, "treat the value as an area")

	rootCmd.AddCommand(unitsCmd)
}
