package node

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/ir"
)

// Compress serializes nodes as one list, sorted by height then identity so
// every node follows the listed nodes it references.
//
// Content-derived nodes omit "!uuid" since it can be recomputed. A reference
// to a node earlier in the list is written as its integer position; any
// other reference as an identity string. Elements are separated by "\n,"
// and the list closes with "\n]". Giving the same identity twice is an
// ErrDuplicateIdentity.
func Compress(nodes ...Node) ([]byte, error) {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b Node) int {
		if c := cmp.Compare(a.Height(), b.Height()); c != 0 {
			return c
		}
		ai, bi := a.ID(), b.ID()
		return bytes.Compare(ai[:], bi[:])
	})

	index := make(map[uuid.UUID]int, len(sorted))
	encode := func(ref ir.IRRef) (ir.IRValue, error) {
		id := ref.Target.ID()
		if pos, ok := index[id]; ok {
			return ir.IRInt(pos), nil
		}
		return ir.IRString(id.String()), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range sorted {
		if _, dup := index[n.ID()]; dup {
			return nil, ir.Errorf(ir.ErrDuplicateIdentity, "node given more than once").WithID(n.ID().String())
		}
		text, err := ir.MarshalWith(Canonical(n, n.HasIdentity()), encode)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString("\n,")
		}
		buf.Write(text)
		index[n.ID()] = i
	}
	buf.WriteString("\n]")
	return buf.Bytes(), nil
}
