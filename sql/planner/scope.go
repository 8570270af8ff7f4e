package planner

import (
	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// scopeColumn is one column visible in a scope frame.
type scopeColumn struct {
	relationName string
	columnName   string
	columnIndex  int
	dataType     parser.ExprDataType
}

// scopeRelation is one named relation registered in a scope frame. Columns
// keep the order the relation declares them in.
type scopeRelation struct {
	name    string
	columns []*scopeColumn
}

// scopeFrame holds the relations visible to one query block. Relations are
// kept in registration order so wildcard expansion is deterministic.
type scopeFrame struct {
	relations []*scopeRelation
}

func (f *scopeFrame) relation(name string) *scopeRelation {
	for _, r := range f.relations {
		if r.name == name {
			return r
		}
	}
	return nil
}

func (f *scopeFrame) columnCount() int {
	count := 0
	for _, r := range f.relations {
		count += len(r.columns)
	}
	return count
}

// columns returns every column in the frame in registration order.
func (f *scopeFrame) columns() []*scopeColumn {
	result := make([]*scopeColumn, 0, f.columnCount())
	for _, r := range f.relations {
		result = append(result, r.columns...)
	}
	return result
}

// scopeStack is the stack of scope frames. The top frame belongs to the
// query block currently being compiled, earlier frames to enclosing blocks.
type scopeStack struct {
	frames []*scopeFrame
}

func newScopeStack() *scopeStack {
	return &scopeStack{
		frames: make([]*scopeFrame, 0),
	}
}

func (s *scopeStack) push() {
	s.frames = append(s.frames, &scopeFrame{})
}

func (s *scopeStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scopeStack) top() *scopeFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// addRelation registers a relation in the top frame. The relation name must
// be unique within the frame. Column ordinals continue from the columns
// already registered so the frame describes one flattened row.
func (s *scopeStack) addRelation(name string, schema types.Schema, pos parser.Pos) error {
	frame := s.top()
	if frame == nil {
		return sql.NewErrInternalf("no scope frame to add relation '%s' to", name)
	}
	if frame.relation(name) != nil {
		return sql.NewErrDuplicateAlias(pos.Line, pos.Column, name)
	}
	base := frame.columnCount()
	rel := &scopeRelation{
		name:    name,
		columns: make([]*scopeColumn, 0, len(schema)),
	}
	for idx, col := range schema {
		rel.columns = append(rel.columns, &scopeColumn{
			relationName: name,
			columnName:   col.ColumnName,
			columnIndex:  base + idx,
			dataType:     col.Type,
		})
	}
	frame.relations = append(frame.relations, rel)
	return nil
}

// resolve finds a column by name, walking frames innermost first. The
// returned level is the number of frames between the top frame and the one
// the column was found in; a non-zero level means the reference is
// correlated. Ambiguity is only reported when the name being looked up is
// itself ambiguous within a frame, never for clashes the query does not
// touch.
func (s *scopeStack) resolve(qualifier string, name string, pos parser.Pos) (*scopeColumn, int, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		frame := s.frames[i]
		level := len(s.frames) - 1 - i

		if qualifier != "" {
			rel := frame.relation(qualifier)
			if rel == nil {
				continue
			}
			for _, col := range rel.columns {
				if col.columnName == name {
					return col, level, nil
				}
			}
			// the relation exists here but has no such column, so an
			// enclosing frame cannot be meant
			return nil, 0, sql.NewErrUnknownReference(pos.Line, pos.Column, qualifier+"."+name)
		}

		var found *scopeColumn
		for _, rel := range frame.relations {
			for _, col := range rel.columns {
				if col.columnName != name {
					continue
				}
				if found != nil {
					return nil, 0, sql.NewErrAmbiguousReference(pos.Line, pos.Column, name)
				}
				found = col
			}
		}
		if found != nil {
			return found, level, nil
		}
	}
	refName := name
	if qualifier != "" {
		refName = qualifier + "." + name
	}
	return nil, 0, sql.NewErrUnknownReference(pos.Line, pos.Column, refName)
}

// relationColumns returns the columns of a named relation in the top frame,
// for qualified wildcard expansion.
func (s *scopeStack) relationColumns(qualifier string, pos parser.Pos) ([]*scopeColumn, error) {
	frame := s.top()
	if frame == nil {
		return nil, sql.NewErrInternalf("no scope frame for wildcard expansion")
	}
	rel := frame.relation(qualifier)
	if rel == nil {
		return nil, sql.NewErrUnknownReference(pos.Line, pos.Column, qualifier)
	}
	return rel.columns, nil
}
