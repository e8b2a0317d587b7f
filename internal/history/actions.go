// Package history exposes the fetch catalog from the command line.
package history

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/imagesync/pkg/catalog"
)

// HistoryAction handles the history command: it prints recent fetch
// records from the catalog database as YAML.
func HistoryAction(c *cli.Context) error {
	dbPath := c.String("database")
	if dbPath == "" {
		dbPath = catalog.DefaultDBName
	}

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no catalog database at %s (run sync with --database first)", dbPath)
	}

	cat, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	records, err := cat.RecentFetches(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to query fetch history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No fetches recorded yet")
		return nil
	}

	yamlBytes, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	fmt.Print(string(yamlBytes))
	return nil
}
