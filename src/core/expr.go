package core

import "fmt"

// A Scalar is a single configuration value: a string, number, or bool.
// Config axes and expression leaves are always one of these underlying types.
type Scalar = interface{}

// An Expr is a node of the attribute-value expression tree. Every attribute
// value on a target is, uniformly, a possibly-nested sequence of scalars and
// these variants; resolving one against a baked ConfigRecord always yields a
// flat sequence of scalars.
//
// Expr is a closed sum type; the only implementations are Lit, Seq,
// Optional, and Switch, matched by the resolver with a type switch rather
// than a visitor interface, since the set of variants is fixed by the data
// model and will not grow.
type Expr interface {
	isExpr()
}

// Lit is a literal scalar leaf.
type Lit struct {
	Value Scalar
}

func (Lit) isExpr() {}

// Seq is a plain, unconditional sequence of sub-expressions, concatenated in
// order during resolution.
type Seq []Expr

func (Seq) isExpr() {}

// Condition is a map of config keys to required values, evaluated against a
// baked ConfigRecord as an AND over all of its entries. A value may be a
// single Scalar (equality) or a ConfigSet (membership). An empty Condition
// always holds.
type Condition map[string]interface{}

// ConfigSet marks a Condition value as "any of these", rather than a literal
// scalar to compare for equality. Condition{"platform": ConfigSet{"linux",
// "darwin"}} holds when config["platform"] is either.
type ConfigSet []Scalar

// Optional yields Then when Cond holds under the baked config being
// resolved against, and the empty sequence otherwise.
type Optional struct {
	Cond Condition
	Then Seq
}

func (Optional) isExpr() {}

// A Case pairs a Condition with the value sequence yielded when it is the
// first matching case of an enclosing Switch. A default case is written
// with an empty Condition, which always holds.
type Case struct {
	Cond Condition
	Then Seq
}

// Switch yields the Then sequence of the first Case whose Condition holds,
// or the empty sequence if none do.
type Switch []Case

func (Switch) isExpr() {}

// resolve evaluates expr against a baked config, producing a flat,
// left-to-right, depth-first sequence of scalars with empty branches
// dropped. config must be baked (every axis a scalar); evaluating a
// Condition against a matrix config is a fatal MatrixLeakage, but that can
// only happen if a caller passes an unbaked record here, which should never
// occur outside the matrix-baking boundary itself.
func resolve(config *BakedConfig, expr Expr) ([]Scalar, error) {
	switch e := expr.(type) {
	case Lit:
		return []Scalar{e.Value}, nil
	case Seq:
		out := make([]Scalar, 0, len(e))
		for _, sub := range e {
			vs, err := resolve(config, sub)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case Optional:
		ok, err := e.Cond.holds(config)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return resolve(config, e.Then)
	case Switch:
		for _, c := range e {
			ok, err := c.Cond.holds(config)
			if err != nil {
				return nil, err
			}
			if ok {
				return resolve(config, c.Then)
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unresolvable expression node %T", expr)
	}
}

// Resolve is the exported entry point for expression resolution, usable
// directly by the workspace facade.
func Resolve(config *BakedConfig, expr Expr) ([]Scalar, error) {
	return resolve(config, expr)
}

// holds evaluates a Condition against a baked config. Every key must be
// present in config, else UnknownConfigKey; config must be baked, else
// MatrixLeakage.
func (c Condition) holds(config *BakedConfig) (bool, error) {
	if !config.baked {
		return false, &Error{Kind: MatrixLeakage, Message: "condition evaluated against a matrix (unbaked) config"}
	}
	for key := range c {
		if _, ok := config.Values[key]; !ok {
			return false, &Error{Kind: UnknownConfigKey, Message: fmt.Sprintf("unknown config key %q", key)}
		}
	}
	for key, want := range c {
		cv := config.Values[key]
		switch w := want.(type) {
		case ConfigSet:
			if !w.contains(cv) {
				return false, nil
			}
		default:
			if cv != want {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s ConfigSet) contains(v Scalar) bool {
	for _, candidate := range s {
		if candidate == v {
			return true
		}
	}
	return false
}
