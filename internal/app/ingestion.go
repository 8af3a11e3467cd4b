package app

import (
	"fmt"
	"io"

	"canteen-planner/internal/catalog"

	"github.com/rs/zerolog/log"
)

// ImportMenuPage reads a published menu page and writes the dishes it finds
// as a TOML catalog, ready for CANTEEN_CATALOG_PATH. It returns the number
// of dishes written.
func ImportMenuPage(r io.Reader, w io.Writer) (int, error) {
	cat, err := catalog.ImportHTML(r)
	if err != nil {
		return 0, fmt.Errorf("failed to import menu page: %w", err)
	}

	for _, d := range cat.All() {
		if d.Kcal == 0 {
			log.Warn().Str("dish", d.ID).Msg("menu item lists zero calories")
		}
	}

	if err := catalog.WriteTOML(w, cat); err != nil {
		return 0, err
	}
	return cat.Len(), nil
}
