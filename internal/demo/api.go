// Package demo is the hero registry served by the graphbind CLI. It
// exercises every binding feature: an interface, a union, an enum, an input
// object, scalars mapped through a setter and a static factory, and both
// plain and batched source fields.
package demo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type API struct {
	mu       sync.RWMutex
	heroes   []*Hero
	villains []*Villain
	cities   []*City
	// nemeses maps hero ids to villain ids.
	nemeses map[string][]string
	nextID  int
	// loads counts calls of the batched Nemeses field.
	loads int
}

func New() *API {
	day := func(s string) Date {
		t, _ := time.Parse(time.DateOnly, s)
		return FromDateTime(t)
	}
	return &API{
		heroes: []*Hero{
			{ID: "h1", Name: "Skyhawk", Power: Flight, Debut: day("1962-08-01"), Salary: NewMoney("5200.00"), Home: "Gotham"},
			{ID: "h2", Name: "Ironclad", Power: Strength, Debut: day("1963-03-01"), Salary: NewMoney("7300.50"), Home: "Metro City"},
			{ID: "h3", Name: "Blink", Power: Speed, Debut: day("1980-11-15"), Salary: NewMoney("4100.00"), Home: "Gotham"},
		},
		villains: []*Villain{
			{ID: "v1", Name: "Doctor Gloom", Lair: "Crypt", Bounty: NewMoney("1000000")},
			{ID: "v2", Name: "The Magnet", Lair: "Scrapyard", Bounty: NewMoney("250000.75")},
		},
		cities: []*City{
			{Name: "Gotham", Population: 8_000_000},
			{Name: "Metro City", Population: 12_500_000},
		},
		nemeses: map[string][]string{
			"h1": {"v1"},
			"h2": {"v2", "v1"},
		},
		nextID: 4,
	}
}

func (a *API) Hero(id string) (*Hero, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if h := a.hero(id); h != nil {
		return h, nil
	}
	return nil, fmt.Errorf("hero %s: %w", id, ErrNotFound)
}

func (a *API) hero(id string) *Hero {
	for _, h := range a.heroes {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// Heroes lists heroes, optionally only those with power.
func (a *API) Heroes(power *Power) []*Hero {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Hero, 0, len(a.heroes))
	for _, h := range a.heroes {
		if power == nil || h.Power == *power {
			out = append(out, h)
		}
	}
	return out
}

// Search matches names case-insensitively. Heroes come first, then
// villains, then cities.
func (a *API) Search(text string) []SearchResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	text = strings.ToLower(text)
	match := func(name string) bool { return strings.Contains(strings.ToLower(name), text) }

	var out []SearchResult
	for _, h := range a.heroes {
		if match(h.Name) {
			out = append(out, h)
		}
	}
	for _, v := range a.villains {
		if match(v.Name) {
			out = append(out, v)
		}
	}
	for _, c := range a.cities {
		if match(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (a *API) City(name string) *City {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.cities {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Recruit adds a hero. The debut defaults to the current day.
func (a *API) Recruit(ctx context.Context, input HeroInput) (*Hero, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidInput)
	}
	h := &Hero{Name: input.Name, Power: input.Power, Salary: input.Salary}
	if input.Debut != nil {
		h.Debut = *input.Debut
	} else {
		h.Debut = FromDateTime(time.Now())
	}
	if input.Home != nil {
		h.Home = *input.Home
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	h.ID = "h" + strconv.Itoa(a.nextID)
	a.nextID++
	a.heroes = append(a.heroes, h)
	return h, nil
}

// Raise adds amount to a hero's salary. The stored hero is replaced, not
// modified, so values handed to running requests never change.
func (a *API) Raise(id string, amount Money) (*Hero, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.heroes, func(h *Hero) bool { return h.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("hero %s: %w", id, ErrNotFound)
	}
	h := *a.heroes[i]
	h.Salary = h.Salary.Plus(amount)
	a.heroes[i] = &h
	return &h, nil
}

// Nemeses loads the nemeses of many heroes at once.
func (a *API) Nemeses(ctx context.Context, heroes []*Hero) ([][]*Villain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loads++
	out := make([][]*Villain, len(heroes))
	for i, h := range heroes {
		out[i] = []*Villain{}
		for _, vid := range a.nemeses[h.ID] {
			for _, v := range a.villains {
				if v.ID == vid {
					out[i] = append(out[i], v)
				}
			}
		}
	}
	return out, nil
}

// Residents lists the heroes living in city.
func (a *API) Residents(city *City) []Person {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []Person
	for _, h := range a.heroes {
		if h.Home == city.Name {
			out = append(out, h)
		}
	}
	return out
}

// Loads returns how many times Nemeses ran.
func (a *API) Loads() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loads
}
