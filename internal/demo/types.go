package demo

import (
	"time"

	"github.com/shopspring/decimal"
)

type Power string

const (
	Flight    Power = "FLIGHT"
	Strength  Power = "STRENGTH"
	Speed     Power = "SPEED"
	Telepathy Power = "TELEPATHY"
)

// Person is implemented by heroes and villains.
type Person interface {
	GetName() string
}

// SearchResult is the union of everything Search can return.
type SearchResult interface {
	isSearchResult()
}

// Money is an amount rounded to cents. Clients see it as a BigDecimal.
type Money struct{ amount decimal.Decimal }

func NewMoney(s string) Money { return Money{amount: decimal.RequireFromString(s).Round(2)} }

func (m *Money) SetValue(d decimal.Decimal) { m.amount = d.Round(2) }

func (m Money) Plus(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }

func (m Money) String() string { return m.amount.StringFixed(2) }

// Date is a calendar day. Clients see it as a DateTime at midnight UTC.
type Date struct{ t time.Time }

func FromDateTime(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.t.Format(time.RFC3339) }

type Hero struct {
	ID     string `graphql:",id"`
	Name   string `desc:"The name the public knows."`
	Power  Power
	Debut  Date
	Salary Money
	Home   string `graphql:"-"`
}

func (h *Hero) GetName() string { return h.Name }
func (*Hero) isSearchResult()   {}

type Villain struct {
	ID     string `graphql:",id"`
	Name   string
	Lair   string
	Bounty Money
}

func (v *Villain) GetName() string { return v.Name }
func (*Villain) isSearchResult()   {}

type City struct {
	Name       string
	Population int64
}

func (*City) isSearchResult() {}

// HeroInput describes a recruit.
type HeroInput struct {
	Name   string
	Power  Power
	Salary Money
	Debut  *Date
	Home   *string
}
