package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/PuerkitoBio/goquery"
)

type catalogFile struct {
	Dishes []Dish `toml:"dishes"`
}

// LoadFile reads a TOML catalog of [[dishes]] tables.
func LoadFile(path string) (*Catalog, error) {
	var raw catalogFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("catalog parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog parse failed (%s): unknown keys %v", path, undecoded)
	}
	if len(raw.Dishes) == 0 {
		return nil, fmt.Errorf("catalog %s contains no dishes", path)
	}
	return New(raw.Dishes)
}

// WriteTOML encodes the catalog in the format LoadFile reads.
func WriteTOML(w io.Writer, c *Catalog) error {
	if err := toml.NewEncoder(w).Encode(catalogFile{Dishes: c.All()}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// ImportHTML extracts dishes from a published menu page. Every element
// carrying a data-dish-id attribute is one dish:
//
//	<li data-dish-id="idli" data-kcal="220" data-protein="8" data-carbs="44"
//	    data-fat="2" data-tags="Vegan" data-region="South">
//	  <span class="dish-name">Idli</span>
//	</li>
func ImportHTML(r io.Reader) (*Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu HTML: %w", err)
	}

	var (
		dishes  []Dish
		scanErr error
	)
	doc.Find("[data-dish-id]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		d, err := dishFromSelection(s)
		if err != nil {
			scanErr = fmt.Errorf("menu item %d: %w", i, err)
			return false
		}
		dishes = append(dishes, d)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if len(dishes) == 0 {
		return nil, fmt.Errorf("menu HTML contains no dishes")
	}
	return New(dishes)
}

func dishFromSelection(s *goquery.Selection) (Dish, error) {
	id, _ := s.Attr("data-dish-id")
	d := Dish{ID: id}

	name := s.Find(".dish-name").First().Text()
	if strings.TrimSpace(name) == "" {
		name = s.Text()
	}
	d.Name = strings.Join(strings.Fields(name), " ")

	var err error
	if d.Kcal, err = intAttr(s, "data-kcal"); err != nil {
		return Dish{}, err
	}
	if d.Macros.P, err = intAttr(s, "data-protein"); err != nil {
		return Dish{}, err
	}
	if d.Macros.C, err = intAttr(s, "data-carbs"); err != nil {
		return Dish{}, err
	}
	if d.Macros.F, err = intAttr(s, "data-fat"); err != nil {
		return Dish{}, err
	}

	d.Tags = listAttr(s, "data-tags")
	d.Allergens = listAttr(s, "data-allergens")
	d.Region, _ = s.Attr("data-region")
	d.State, _ = s.Attr("data-state")
	d.About = strings.TrimSpace(s.Find(".dish-about").First().Text())
	return d, nil
}

// intAttr reads a required integer attribute. Nutrition data missing from a
// menu card is an invalid dish, not zero.
func intAttr(s *goquery.Selection, name string) (int, error) {
	raw, ok := s.Attr(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidDish, name)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidDish, name, raw)
	}
	return v, nil
}

func listAttr(s *goquery.Selection, name string) []string {
	raw, ok := s.Attr(name)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
