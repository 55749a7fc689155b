package main

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"

	"github.com/Limetric/waffles"
)

// rowGenerator produces fake column values for seeding.
type rowGenerator struct {
	faker faker.Faker
}

func newRowGenerator() *rowGenerator {
	return &rowGenerator{faker: faker.New()}
}

// values returns one generated row. Serial columns are left out so the
// server assigns them.
func (g *rowGenerator) values(cols []*waffles.Column) waffles.Values {
	var vs waffles.Values
	for _, col := range cols {
		if isSerial(col) {
			continue
		}
		vs = vs.Set(col.Name(), g.value(col))
	}
	return vs
}

func (g *rowGenerator) value(col *waffles.Column) any {
	switch t := col.Type().(type) {
	case waffles.Integer:
		return g.integer(t)
	case waffles.String:
		return g.str(col.Name(), t)
	case waffles.JSON:
		return map[string]any{
			"word":  g.faker.Lorem().Word(),
			"count": g.faker.IntBetween(0, 1000),
		}
	default:
		return nil
	}
}

func (g *rowGenerator) integer(t waffles.Integer) int64 {
	switch {
	case t.Small():
		return g.faker.Int64Between(0, 32767)
	case t.Big():
		return g.faker.Int64Between(0, 1<<40)
	}
	return g.faker.Int64Between(0, 1<<31-1)
}

func (g *rowGenerator) str(name string, t waffles.String) string {
	if t.Fixed() {
		return g.faker.RandomStringWithLength(t.Length())
	}

	name = strings.ToLower(name)
	var s string
	switch {
	case strings.Contains(name, "email"):
		s = g.faker.Internet().Email()
	case strings.Contains(name, "name"):
		s = g.faker.Person().Name()
	case strings.Contains(name, "url"):
		s = g.faker.Internet().URL()
	case t.Length() > 0 && t.Length() <= 10:
		s = g.faker.Lorem().Word()
	default:
		s = g.faker.Lorem().Sentence(4)
	}

	return truncateRunes(s, t.Length())
}

// truncateRunes cuts s to at most n characters; n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isSerial(col *waffles.Column) bool {
	t, ok := col.Type().(waffles.Integer)
	return ok && t.AutoIncrement()
}

// seedTable inserts n generated rows into table.
func seedTable(ctx context.Context, table *waffles.Table, n int, logger logrus.FieldLogger) error {
	gen := newRowGenerator()
	for i := 0; i < n; i++ {
		if _, err := table.Add(ctx, gen.values(table.Columns())); err != nil {
			return fmt.Errorf("seed %s: row %d: %w", table.Name(), i+1, err)
		}
	}
	logger.WithField("table", table.Name()).Infof("inserted %d rows", n)
	return nil
}
