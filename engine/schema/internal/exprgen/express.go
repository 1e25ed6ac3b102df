package main

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	reComment = regexp.MustCompile(`(?s)\(\*.*?\*\)`)
	reSchema  = regexp.MustCompile(`(?i)\bSCHEMA\s+(\w+)\s*;`)
	reType    = regexp.MustCompile(`(?is)\bTYPE\s+(\w+)\s*=\s*([^;]*);`)
	reEntity  = regexp.MustCompile(`(?is)\bENTITY\s+(\w+)(.*?)\bEND_ENTITY\s*;`)
	reSubtype = regexp.MustCompile(`(?i)\bSUBTYPE\s+OF\s*\(\s*(\w+)\s*\)`)
)

// sectionKeywords end the explicit attribute list of an entity.
var sectionKeywords = map[string]bool{
	"DERIVE":  true,
	"INVERSE": true,
	"UNIQUE":  true,
	"WHERE":   true,
}

type expressEntity struct {
	Name       string
	Supertype  string
	Attributes []string
}

type expressSchema struct {
	Name     string
	Types    []string
	Entities []expressEntity
}

// parseExpress extracts the schema name, the defined types and the explicit
// attributes of every entity from an EXPRESS (ISO 10303-11) source.
// SELECT and ENUMERATION types are skipped; they never appear as typed
// parameters in a data file.
func parseExpress(src string) (*expressSchema, error) {
	src = reComment.ReplaceAllString(src, " ")

	m := reSchema.FindStringSubmatch(src)
	if m == nil {
		return nil, errors.New("express: no SCHEMA declaration")
	}
	out := &expressSchema{Name: strings.ToUpper(m[1])}

	for _, tm := range reType.FindAllStringSubmatch(src, -1) {
		body := strings.ToUpper(strings.TrimSpace(tm[2]))
		if strings.HasPrefix(body, "SELECT") || strings.HasPrefix(body, "ENUMERATION") {
			continue
		}
		out.Types = append(out.Types, tm[1])
	}
	sort.Slice(out.Types, func(i, j int) bool {
		return strings.ToLower(out.Types[i]) < strings.ToLower(out.Types[j])
	})

	seen := make(map[string]bool)
	for _, em := range reEntity.FindAllStringSubmatch(src, -1) {
		e, err := parseEntity(em[1], em[2])
		if err != nil {
			return nil, err
		}
		key := strings.ToUpper(e.Name)
		if seen[key] {
			return nil, fmt.Errorf("express: entity %s declared twice", e.Name)
		}
		seen[key] = true
		out.Entities = append(out.Entities, e)
	}
	if len(out.Entities) == 0 {
		return nil, fmt.Errorf("express: schema %s declares no entities", out.Name)
	}
	sort.Slice(out.Entities, func(i, j int) bool {
		return strings.ToLower(out.Entities[i].Name) < strings.ToLower(out.Entities[j].Name)
	})
	return out, nil
}

// parseEntity reads the header (up to the first ';') for the supertype and
// then the explicit attribute declarations until the first section keyword.
func parseEntity(name, body string) (expressEntity, error) {
	e := expressEntity{Name: name}
	header, rest, _ := strings.Cut(body, ";")
	if m := reSubtype.FindStringSubmatch(header); m != nil {
		e.Supertype = m[1]
	}

	for _, stmt := range strings.Split(rest, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if first := strings.ToUpper(strings.Fields(stmt)[0]); sectionKeywords[first] {
			break
		}
		names, _, ok := strings.Cut(stmt, ":")
		if !ok {
			return e, fmt.Errorf("express: %s: cannot read attribute %q", name, stmt)
		}
		for _, n := range strings.Split(names, ",") {
			n = strings.TrimSpace(n)
			// SELF\Supertype.Attr narrows an inherited attribute in place.
			if n == "" || strings.Contains(n, `\`) {
				continue
			}
			e.Attributes = append(e.Attributes, n)
		}
	}
	return e, nil
}
