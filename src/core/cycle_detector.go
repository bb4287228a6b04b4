package core

import "strings"

// A dependencyChain is a path through the graph, used to report cycles.
type dependencyChain []Label

func (c dependencyChain) String() string {
	labels := make([]string, len(c))
	for i, l := range c {
		labels[i] = l.String()
	}
	return strings.Join(labels, "\n -> ")
}

// Node colours for the cycle-detecting DFS. White (never visited) is the
// implicit zero value.
const (
	colourWhite = iota
	colourGray  // on the current DFS stack
	colourBlack // fully explored, known cycle-free
)

// cycleDetector checks a dependency relation for cycles with a coloured DFS.
// Discovering an edge back into the gray set is a cycle; black nodes never
// need revisiting, which keeps the whole check linear in edges.
type cycleDetector struct {
	deps   map[Label][]Label
	colour map[Label]int
	stack  dependencyChain
}

func newCycleDetector() *cycleDetector {
	return &cycleDetector{
		deps:   map[Label][]Label{},
		colour: map[Label]int{},
	}
}

// AddDependency records a dependency edge for a later Check.
func (c *cycleDetector) AddDependency(depending Label, dep Label) {
	c.deps[depending] = append(c.deps[depending], dep)
}

// Check visits every recorded node in the given order and returns a
// DependencyCycle error naming the offending cycle if one exists.
func (c *cycleDetector) Check(order []Label) error {
	for _, label := range order {
		if c.colour[label] == colourWhite {
			if err := c.visit(label); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *cycleDetector) visit(label Label) error {
	c.colour[label] = colourGray
	c.stack = append(c.stack, label)
	for _, dep := range c.deps[label] {
		switch c.colour[dep] {
		case colourGray:
			return newLabelError(DependencyCycle, dep, "dependency cycle found:\n%s", c.cycleFrom(dep).String())
		case colourWhite:
			if err := c.visit(dep); err != nil {
				return err
			}
		}
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.colour[label] = colourBlack
	return nil
}

// cycleFrom slices the DFS stack down to the part forming the cycle back to head.
func (c *cycleDetector) cycleFrom(head Label) dependencyChain {
	for i, l := range c.stack {
		if l == head {
			return append(append(dependencyChain{}, c.stack[i:]...), head)
		}
	}
	return append(append(dependencyChain{}, c.stack...), head)
}
