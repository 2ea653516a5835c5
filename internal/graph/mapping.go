package graph

import "reflect"

// Strategy names how a domain value is created from a scalar representation.
type Strategy string

const (
	StrategyNone        Strategy = "NONE"
	StrategyConstructor Strategy = "CONSTRUCTOR"
	StrategySetValue    Strategy = "SET_VALUE"
	StrategyStaticFrom  Strategy = "STATIC_FROM"
)

// Creation is the closed set of creation strategies: None, Constructor,
// Setter and StaticFactory.
type Creation interface {
	Strategy() Strategy
	creation()
}

type None struct{}

type Constructor struct {
	Func reflect.Value
}

// Setter calls Method on a freshly allocated value.
type Setter struct {
	Method string
}

type StaticFactory struct {
	Name string
	Func reflect.Value
}

func (None) Strategy() Strategy          { return StrategyNone }
func (Constructor) Strategy() Strategy   { return StrategyConstructor }
func (Setter) Strategy() Strategy        { return StrategySetValue }
func (StaticFactory) Strategy() Strategy { return StrategyStaticFrom }

func (None) creation()          {}
func (Constructor) creation()   {}
func (Setter) creation()        {}
func (StaticFactory) creation() {}

// Mapping presents a field as a scalar and records how to build the domain
// value back from that scalar's representation.
type Mapping struct {
	Target *Reference
	Create Creation
}

func (m *Mapping) Strategy() Strategy {
	if m == nil || m.Create == nil {
		return StrategyNone
	}
	return m.Create.Strategy()
}
