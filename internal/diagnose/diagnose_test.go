package diagnose

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklookup/internal/config"
	"booklookup/internal/lookup"
	"booklookup/internal/lookup/lookuptest"
)

func newChecker(t *testing.T, api *lookuptest.Server, progress io.Writer) *Checker {
	t.Helper()
	cfg := config.Default().API
	cfg.BaseURL = api.BaseURL()
	cfg.Timeout = 2 * time.Second
	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := lookup.New(cfg, log)
	require.NoError(t, err)
	p, err := NewChecker(client, progress)
	require.NoError(t, err)
	return p
}

func TestRun_HealthyAPI(t *testing.T) {
	api := lookuptest.NewServer()
	defer api.Close()
	api.AddBook(lookuptest.Book{Title: "Dune", Description: "A sci-fi epic", Authors: []int{1, 2}})
	api.AddAuthor(1, lookuptest.Author{FirstName: "Frank", LastName: "Herbert"})
	api.AddAuthor(2, lookuptest.Author{FirstName: "Brian", MiddleInitial: lookuptest.Ptr("P"), LastName: "Herbert"})

	var progress bytes.Buffer
	rep := newChecker(t, api, &progress).Run(context.Background(), "Dune", 0)

	require.Len(t, rep.Checks, 3)
	assert.Zero(t, rep.Failed())
	assert.Equal(t, "author 2", rep.Checks[2].Name)
	assert.Equal(t, "Brian Herbert", rep.Checks[2].Detail)
	assert.Equal(t, []int{1, 2}, api.Fetched())
	assert.NotEmpty(t, progress.String())

	var out bytes.Buffer
	_, err := rep.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "3/3 checks passed")
}

func TestRun_ContractViolations(t *testing.T) {
	api := lookuptest.NewServer()
	defer api.Close()
	// authors: null breaks the array contract
	api.AddBook(lookuptest.Book{Title: "Anon", Description: "d"})
	api.AddAuthor(1, lookuptest.Author{FirstName: "Frank", LastName: "Herbert"})
	api.BreakAuthor(3, http.StatusInternalServerError)

	rep := newChecker(t, api, nil).Run(context.Background(), "Anon", 3)

	require.Len(t, rep.Checks, 4)
	assert.False(t, rep.Checks[0].OK)
	assert.Contains(t, rep.Checks[0].Detail, "schema")
	assert.True(t, rep.Checks[1].OK)
	assert.Equal(t, "HTTP 404", rep.Checks[2].Detail)
	assert.Equal(t, "HTTP 500", rep.Checks[3].Detail)
	assert.Equal(t, 3, rep.Failed())
}

func TestValidate_RejectsNonJSON(t *testing.T) {
	p, err := NewChecker(nil, nil)
	require.NoError(t, err)
	assert.Error(t, validate(p.author, []byte("<html>")))
	assert.NoError(t, validate(p.author, []byte(`{"firstName":"A","lastName":"B","middleInitial":null}`)))
}
