package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/quovi/discover/internal/restaurant"
)

// Generator turns texts into vectors of one fixed dimensionality.
type Generator interface {
	// Name identifies the generator in logs and statistics.
	Name() string
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Build embeds the description of every restaurant of catalog.
func Build(ctx context.Context, gen Generator, catalog []restaurant.Restaurant) (*Table, error) {
	texts := make([]string, len(catalog))
	for i, r := range catalog {
		texts[i] = DescriptionText(r)
	}

	vectors, err := gen.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d descriptions with %s: %w", len(texts), gen.Name(), err)
	}
	if len(vectors) != len(catalog) {
		return nil, fmt.Errorf("%s returned %d vectors for %d descriptions", gen.Name(), len(vectors), len(catalog))
	}

	byID := make(map[int][]float64, len(catalog))
	for i, r := range catalog {
		byID[r.ID] = vectors[i]
	}
	return NewTable(byID)
}

// bigramSize is the length of NGramGenerator vectors.
const bigramSize = 26 * 26

// NGramGenerator embeds text as normalized letter-bigram frequencies. It needs
// no model and is used when no embedding service is configured.
type NGramGenerator struct{}

// Name returns "bigram".
func (NGramGenerator) Name() string { return "bigram" }

// Embed returns a 676-value vector per text.
func (g NGramGenerator) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = bigramVector(text)
	}
	return out, nil
}

func bigramVector(input string) []float64 {
	letters := foldLetters(input)
	vector := make([]float64, bigramSize)
	sum := 0.0
	for i := 0; i+1 < len(letters); i++ {
		// Bigrams never span a word boundary.
		if letters[i] == ' ' || letters[i+1] == ' ' {
			continue
		}
		index := int(letters[i]-'a')*26 + int(letters[i+1]-'a')
		vector[index]++
		sum++
	}
	if sum == 0 {
		return vector
	}
	for i := range vector {
		vector[i] /= sum
	}
	return vector
}

// foldLetters lowercases input, strips accents and replaces every run of
// non a-z characters with a single space.
func foldLetters(input string) []byte {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(input))
	if err != nil {
		folded = strings.ToLower(input)
	}

	out := make([]byte, 0, len(folded))
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if c >= 'a' && c <= 'z' {
			out = append(out, c)
			continue
		}
		if len(out) > 0 && out[len(out)-1] != ' ' {
			out = append(out, ' ')
		}
	}
	return out
}
