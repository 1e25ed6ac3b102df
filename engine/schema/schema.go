// Package schema maps IFC entity types to their ordered attribute names.
//
// A Schema is loaded from a YAML table listing, per entity, its supertype and
// the attributes it declares. AttributeNames resolves the full inherited list,
// so slot i of a record of type T carries AttributeNames(T)[i].
package schema

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownType is returned for entity types the schema does not declare.
	ErrUnknownType = errors.New("schema: unknown entity type")
	// ErrUnknownSchema is returned when no table exists for a schema name.
	ErrUnknownSchema = errors.New("schema: unknown schema")
	// ErrInvalid is returned for tables that fail validation.
	ErrInvalid = errors.New("schema: invalid table")
)

const cacheSize = 512

type table struct {
	Schema   string                `yaml:"schema"`
	Base     string                `yaml:"base,omitempty"`
	Types    []string              `yaml:"types,omitempty"`
	Entities map[string]tableEntry `yaml:"entities"`
}

type tableEntry struct {
	Supertype  string   `yaml:"supertype,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
}

type entity struct {
	name       string // canonical spelling
	supertype  string // upper-case key, "" at the root
	attributes []string
}

// Schema answers attribute-name queries for one IFC schema version.
// It is safe for concurrent use.
type Schema struct {
	name     string
	entities map[string]entity // keyed by upper-case type name
	defined  map[string]string // defined types, upper-case -> spelling

	cache *lru.Cache[string, []string]
}

// Load reads a YAML table from r. A table naming a base schema inherits every
// entity of that builtin table it does not redeclare.
func Load(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: read: %w", err)
	}
	return Parse(data)
}

// Parse is Load for a table held in memory.
func Parse(data []byte) (*Schema, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	return build(t, 0)
}

func build(t table, depth int) (*Schema, error) {
	if strings.TrimSpace(t.Schema) == "" {
		return nil, fmt.Errorf("%w: missing schema name", ErrInvalid)
	}
	entities := make(map[string]entity)
	defined := make(map[string]string)
	if t.Base != "" {
		if depth > 4 {
			return nil, fmt.Errorf("%w: base chain too deep at %s", ErrInvalid, t.Schema)
		}
		bt, err := builtinTable(t.Base)
		if err != nil {
			return nil, fmt.Errorf("schema %s: base: %w", t.Schema, err)
		}
		base, err := build(bt, depth+1)
		if err != nil {
			return nil, err
		}
		for k, e := range base.entities {
			entities[k] = e
		}
		for k, name := range base.defined {
			defined[k] = name
		}
	}
	for _, name := range t.Types {
		defined[strings.ToUpper(name)] = name
	}
	for name, te := range t.Entities {
		entities[strings.ToUpper(name)] = entity{
			name:       name,
			supertype:  strings.ToUpper(te.Supertype),
			attributes: te.Attributes,
		}
	}

	s, err := newSchema(strings.ToUpper(t.Schema), entities)
	if err != nil {
		return nil, err
	}
	s.defined = defined
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSchema(name string, entities map[string]entity) (*Schema, error) {
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("schema: cache: %w", err)
	}
	return &Schema{name: name, entities: entities, cache: cache}, nil
}

// validate checks that supertypes exist and the hierarchy has no cycles.
func (s *Schema) validate() error {
	for key, e := range s.entities {
		seen := map[string]bool{key: true}
		for sup := e.supertype; sup != ""; {
			parent, ok := s.entities[sup]
			if !ok {
				return fmt.Errorf("%w: %s: supertype %s not declared", ErrInvalid, e.name, sup)
			}
			if seen[sup] {
				return fmt.Errorf("%w: %s: supertype cycle through %s", ErrInvalid, e.name, parent.name)
			}
			seen[sup] = true
			sup = parent.supertype
		}
	}
	return nil
}

// Name returns the schema identifier, e.g. "IFC4".
func (s *Schema) Name() string { return s.name }

// Len returns the number of declared entity types.
func (s *Schema) Len() int { return len(s.entities) }

// Canonical returns the declared spelling of an entity type given in any case,
// e.g. IFCWALL -> IfcWall.
func (s *Schema) Canonical(typeName string) (string, bool) {
	e, ok := s.entities[strings.ToUpper(typeName)]
	if !ok {
		return "", false
	}
	return e.name, true
}

// CanonicalType is Canonical extended to the defined types used by typed
// parameters (IFCLABEL -> IfcLabel).
func (s *Schema) CanonicalType(name string) (string, bool) {
	if n, ok := s.Canonical(name); ok {
		return n, true
	}
	n, ok := s.defined[strings.ToUpper(name)]
	return n, ok
}

// Has reports whether the schema declares typeName.
func (s *Schema) Has(typeName string) bool {
	_, ok := s.entities[strings.ToUpper(typeName)]
	return ok
}

// AttributeNames returns the ordered attribute names of typeName, inherited
// attributes first. The returned slice must not be modified.
func (s *Schema) AttributeNames(typeName string) ([]string, error) {
	key := strings.ToUpper(typeName)
	if names, ok := s.cache.Get(key); ok {
		return names, nil
	}
	e, ok := s.entities[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	var chain []entity
	for cur := e; ; {
		chain = append(chain, cur)
		if cur.supertype == "" {
			break
		}
		cur = s.entities[cur.supertype]
	}
	var names []string
	for i := len(chain) - 1; i >= 0; i-- {
		names = append(names, chain[i].attributes...)
	}
	s.cache.Add(key, names)
	return names, nil
}

// AttributeName returns the name of slot i of typeName. Unknown types and
// slots past the declared attributes fall back to "Attribute<i>".
func (s *Schema) AttributeName(typeName string, i int) string {
	names, err := s.AttributeNames(typeName)
	if err != nil || i < 0 || i >= len(names) {
		return "Attribute" + strconv.Itoa(i)
	}
	return names[i]
}
