package generator

import (
	"strconv"

	"sensor-analytics/pkg/models"
)

const (
	sensorRound = 6
	userRound   = 5
)

// Pool is an insertion-ordered set of generated values. Order matters: it
// keeps seeded runs reproducible, which a plain map iteration would not.
type Pool struct {
	seen  map[string]struct{}
	order []string
}

func NewPool() *Pool {
	return &Pool{seen: make(map[string]struct{})}
}

// Add inserts v and reports whether it was new.
func (p *Pool) Add(v string) bool {
	if _, ok := p.seen[v]; ok {
		return false
	}
	p.seen[v] = struct{}{}
	p.order = append(p.order, v)
	return true
}

func (p *Pool) Len() int { return len(p.order) }

func (p *Pool) Values() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// SensorPool fills a pool in rounds of a random date, a random clock time and
// four random integers until it holds at least target values. The result can
// overshoot target by up to one round minus one.
func (g *Generator) SensorPool(target int) []string {
	p := NewPool()
	for p.Len() < target {
		p.Add(g.faker.Date().Format(models.DateLayout))
		p.Add(g.faker.Date().Format(models.ClockLayout))
		for i := 0; i < 4; i++ {
			p.Add(strconv.Itoa(g.faker.Number(0, 9999)))
		}
	}
	g.log.Debug("sensor pool ready", "target", target, "size", p.Len())
	return p.Values()
}

// UserPool fills a pool with identity fields, five per round.
func (g *Generator) UserPool(target int) []string {
	p := NewPool()
	for p.Len() < target {
		p.Add(g.faker.FirstName())
		p.Add(g.faker.LastName())
		p.Add(g.faker.Username())
		p.Add(g.faker.Address().Address)
		p.Add(g.faker.Email())
	}
	g.log.Debug("user pool ready", "target", target, "size", p.Len())
	return p.Values()
}
