// Package model exposes the records of a parsed IFC file through a schema:
// canonical type names, positional slots and named attributes.
package model

import (
	"fmt"

	"github.com/WessleyAI/ifcgraph/engine/schema"
	"github.com/WessleyAI/ifcgraph/engine/step"
)

// Model is a read-only view over every instance of one file.
type Model struct {
	header  step.Header
	schema  *schema.Schema
	records []*Record
	byID    map[int64]*Record
}

// New wraps a parsed file. Type names are canonicalized through s.
func New(f *step.File, s *schema.Schema) *Model {
	m := &Model{
		header:  f.Header,
		schema:  s,
		records: make([]*Record, 0, len(f.Instances)),
		byID:    make(map[int64]*Record, len(f.Instances)),
	}
	for _, inst := range f.Instances {
		r := &Record{m: m, inst: inst, typeName: inst.Type}
		if name, ok := s.Canonical(inst.Type); ok {
			r.typeName = name
			r.known = true
		}
		m.records = append(m.records, r)
		m.byID[inst.ID] = r
	}
	return m
}

// Open parses the file at path. A nil schema selects the builtin table for
// the file's FILE_SCHEMA.
func Open(path string, s *schema.Schema) (*Model, error) {
	f, err := step.Open(path)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s, err = schema.ForFile(f.Header.Schema())
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", path, err)
		}
	}
	return New(f, s), nil
}

// Records returns every record in file order.
func (m *Model) Records() []*Record { return m.records }

// ByID returns the record with the given instance id.
func (m *Model) ByID(id int64) (*Record, bool) {
	r, ok := m.byID[id]
	return r, ok
}

// Len returns the number of records.
func (m *Model) Len() int { return len(m.records) }

// Schema returns the schema the model was read with.
func (m *Model) Schema() *schema.Schema { return m.schema }

// Header returns the file header.
func (m *Model) Header() step.Header { return m.header }
