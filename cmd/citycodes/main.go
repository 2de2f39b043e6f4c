// Command citycodes is an offline helper for the Amap adcode table: it loads
// the CSV, reports how many entries parsed, and resolves any place names
// given on the command line. A non-zero exit means at least one name did not
// resolve.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/qingyun-ai/weather-agent/internal/weather"
)

func main() {
	log.SetFlags(0)
	csvPath := flag.String("csv", "data/AMap_adcode_citycode.CSV", "path to the AMap adcode CSV")
	flag.Parse()

	table, err := weather.LoadCityCodes(*csvPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("✅ Loaded %d entries from %s\n", table.Count(), *csvPath)

	missing := 0
	for _, name := range flag.Args() {
		adcode, ok := table.Resolve(name)
		if !ok {
			fmt.Printf("❌ %s: not found\n", name)
			missing++
			continue
		}
		fmt.Printf("   %s → %s\n", name, adcode)
	}
	if missing > 0 {
		os.Exit(1)
	}
}
