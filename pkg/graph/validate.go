package graph

import (
	"errors"
	"fmt"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
)

var (
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrDanglingLink  = errors.New("link endpoint not in nodes")
)

// Validate checks the invariants the viewer relies on: every node has an
// id and group, ids are unique, and every link endpoint names a node.
func (g *Graph) Validate() error {
	if g == nil {
		return errors.New("graph cannot be nil")
	}
	if err := validation.Struct(g); err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for i, l := range g.Links {
		if _, ok := ids[l.Source]; !ok {
			return fmt.Errorf("%w: links[%d].source %q", ErrDanglingLink, i, l.Source)
		}
		if _, ok := ids[l.Target]; !ok {
			return fmt.Errorf("%w: links[%d].target %q", ErrDanglingLink, i, l.Target)
		}
	}
	return nil
}
