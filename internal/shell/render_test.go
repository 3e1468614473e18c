package shell

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"booklookup/internal/config"
)

func TestRenderer(t *testing.T) {
	cfg := config.Default().Shell

	cfg.Color = config.ColorAlways
	r := NewRenderer(cfg, &bytes.Buffer{})
	assert.Equal(t, "\033[31mNo book found.\033[0m", r.Error("No book found."))
	assert.Equal(t, "\033[34mDune\nA sci-fi epic\033[0m", r.Result("Dune\nA sci-fi epic"))

	// brackets in content stay literal
	assert.Equal(t, "\033[34m[red] Book\033[0m", r.Result("[red] Book"))

	cfg.Color = config.ColorNever
	r = NewRenderer(cfg, &bytes.Buffer{})
	assert.Equal(t, "No book found.", r.Error("No book found."))

	// auto never colours a non-terminal writer
	cfg.Color = config.ColorAuto
	r = NewRenderer(cfg, &bytes.Buffer{})
	assert.Equal(t, "Dune", r.Result("Dune"))

	cfg.Color = config.ColorAlways
	cfg.ResultColor = "not-a-colour"
	r = NewRenderer(cfg, &bytes.Buffer{})
	assert.Equal(t, "Dune", r.Result("Dune"))
}
