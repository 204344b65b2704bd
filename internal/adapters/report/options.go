package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithAuthor sets the "prepared by" line and the workbook creator.
func WithAuthor(author string) Option {
	return func(g *Generator) {
		if a := strings.TrimSpace(author); a != "" {
			g.author = a
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator overrides how report ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(g *Generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

func defaultID() string { return uuid.NewString() }
