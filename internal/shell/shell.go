// Package shell runs the interactive prompt: read a title, look it up, print
// the book and its authors, repeat until input closes.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"booklookup/internal/logger"
	"booklookup/internal/lookup"
	"booklookup/internal/metrics"
)

// NotFoundMessage is printed for every failed book search.
const NotFoundMessage = "No book found."

// Lookup is the part of *lookup.Client the shell needs.
type Lookup interface {
	SearchBookByTitle(ctx context.Context, title string) (*lookup.BookRecord, error)
	FetchAuthorNames(ctx context.Context, ids []int) ([]string, error)
}

// LineReader blocks until one line of input is available. *Terminal and
// *PipedInput satisfy it; io.EOF ends the session.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type historyAppender interface {
	AppendHistory(item string)
}

type Shell struct {
	Lookup Lookup
	Input  LineReader
	Out    io.Writer
	Render *Renderer
	Prompt string
}

// Run loops until the input is closed, the prompt is aborted or ctx is done.
// Lookup failures never end the loop; only input and output errors do.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.Input.Prompt(s.Prompt)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, liner.ErrPromptAborted):
			logger.For(ctx).Debug("input closed")
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		if h, ok := s.Input.(historyAppender); ok && strings.TrimSpace(line) != "" {
			h.AppendHistory(line)
		}

		if err := s.Handle(logger.NewRequest(ctx), line); err != nil {
			return err
		}
	}
}

// Handle processes one query and writes its whole answer in a single write.
func (s *Shell) Handle(ctx context.Context, query string) error {
	defer logger.Track(ctx, "shell: interaction")()
	log := logger.For(ctx)

	book, err := s.Lookup.SearchBookByTitle(ctx, query)
	if err != nil {
		kind, _ := lookup.KindOf(err)
		log.WithError(err).WithField("kind", kind.String()).Info("book.not_found")
		metrics.InteractionsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return s.write(s.Render.Error(NotFoundMessage))
	}

	var b strings.Builder
	b.WriteString(book.Title)
	b.WriteByte('\n')
	b.WriteString(book.Description)

	outcome := metrics.OutcomeFoundNoAuth
	if len(book.AuthorIDs) > 0 {
		outcome = metrics.OutcomeFound
		names, err := s.Lookup.FetchAuthorNames(ctx, book.AuthorIDs)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("authors.partial")
			outcome = metrics.OutcomePartial
		}
		for _, n := range names {
			b.WriteByte('\n')
			b.WriteString(n)
		}
	}

	metrics.InteractionsTotal.WithLabelValues(outcome).Inc()
	return s.write(s.Render.Result(b.String()))
}

func (s *Shell) write(msg string) error {
	if _, err := fmt.Fprintln(s.Out, msg); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
