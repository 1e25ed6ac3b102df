package schema

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:generate go run ./internal/exprgen -in https://standards.buildingsmart.org/IFC/RELEASE/IFC4/ADD2_TC1/EXPRESS/IFC4.exp -out tables/ifc4.yaml
//go:generate go run ./internal/exprgen -in https://standards.buildingsmart.org/IFC/RELEASE/IFC2x3/TC1/EXPRESS/IFC2X3_TC1.exp -out tables/ifc2x3.yaml

//go:embed tables/*.yaml
var tables embed.FS

var builtinFiles = map[string]string{
	"IFC4":   "tables/ifc4.yaml",
	"IFC2X3": "tables/ifc2x3.yaml",
}

var (
	builtinMu    sync.Mutex
	builtinCache = map[string]*Schema{}
)

// Builtin returns the embedded schema for name ("IFC4", "IFC2X3"). Schemas
// are built once and shared.
func Builtin(name string) (*Schema, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if s, ok := builtinCache[key]; ok {
		return s, nil
	}
	t, err := builtinTable(key)
	if err != nil {
		return nil, err
	}
	s, err := build(t, 0)
	if err != nil {
		return nil, err
	}
	builtinCache[key] = s
	return s, nil
}

// ForFile picks the builtin table for a FILE_SCHEMA identifier. IFC4 addenda
// and IFC4X3 map to IFC4, whose table covers the entities they share.
// IFC2X3 files get the standalone IFC2X3 table.
func ForFile(fileSchema string) (*Schema, error) {
	id := strings.ToUpper(strings.TrimSpace(fileSchema))
	switch {
	case id == "IFC2X3" || strings.HasPrefix(id, "IFC2X3_"):
		return Builtin("IFC2X3")
	case strings.HasPrefix(id, "IFC4"):
		return Builtin("IFC4")
	case id == "":
		return nil, fmt.Errorf("%w: file declares no schema", ErrUnknownSchema)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, fileSchema)
}

// Names lists the builtin schema identifiers.
func Names() []string {
	return []string{"IFC2X3", "IFC4"}
}

func builtinTable(name string) (table, error) {
	path, ok := builtinFiles[strings.ToUpper(name)]
	if !ok {
		return table{}, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	data, err := tables.ReadFile(path)
	if err != nil {
		return table{}, fmt.Errorf("schema: builtin %s: %w", name, err)
	}
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return table{}, fmt.Errorf("schema: builtin %s: %w", name, err)
	}
	return t, nil
}
