// Package export serializes an accumulated product collection. The CSV
// writer is the primary target; the Postgres sink is an optional secondary
// export for runs that feed downstream jobs.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/hwanjo/gsshop-catalog-client/pkg/normalize"
)

// Columns is the CSV header, one column per normalized field.
var Columns = []string{"id", "name", "price", "discount", "url", "image"}

// WriteCSV writes the collection to path, one row per unique product,
// preceded by a header row. Rows keep the collection's first-seen order.
func WriteCSV(path string, products []normalize.Product) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range products {
		row := []string{
			p.ID,
			p.Name,
			strconv.FormatInt(p.Price, 10),
			strconv.FormatInt(p.Discount, 10),
			p.URL,
			p.Image,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write product %s: %w", p.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return file.Close()
}
