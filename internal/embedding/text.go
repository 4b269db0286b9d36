package embedding

import (
	"strings"

	"github.com/quovi/discover/internal/restaurant"
)

// DescriptionText composes the text embedded for r: name, categories,
// description and features separated by spaces.
func DescriptionText(r restaurant.Restaurant) string {
	parts := make([]string, 0, 2+len(r.Categories)+len(r.Features))
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	add(r.Name)
	for _, c := range r.Categories {
		add(c.Name)
	}
	add(r.Description)
	for _, f := range r.Features {
		add(f.Name)
	}
	return strings.Join(parts, " ")
}
