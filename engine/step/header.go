package step

import "strings"

// Header is the HEADER section of an exchange file.
type Header struct {
	Description         []string
	ImplementationLevel string

	Name                string
	TimeStamp           string
	Author              []string
	Organization        []string
	PreprocessorVersion string
	OriginatingSystem   string
	Authorization       string

	Schemas []string
}

// Schema returns the first FILE_SCHEMA identifier in upper case, or "" if the
// header names none.
func (h Header) Schema() string {
	if len(h.Schemas) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(h.Schemas[0]))
}

// apply copies a header entity into h. Unknown header entities are ignored.
func (h *Header) apply(keyword string, params []Value) {
	switch strings.ToUpper(keyword) {
	case "FILE_DESCRIPTION":
		h.Description = stringsAt(params, 0)
		h.ImplementationLevel = stringAt(params, 1)
	case "FILE_NAME":
		h.Name = stringAt(params, 0)
		h.TimeStamp = stringAt(params, 1)
		h.Author = stringsAt(params, 2)
		h.Organization = stringsAt(params, 3)
		h.PreprocessorVersion = stringAt(params, 4)
		h.OriginatingSystem = stringAt(params, 5)
		h.Authorization = stringAt(params, 6)
	case "FILE_SCHEMA":
		h.Schemas = stringsAt(params, 0)
	}
}

func stringAt(params []Value, i int) string {
	if i < len(params) && params[i].Kind == KindString {
		return params[i].Str
	}
	return ""
}

func stringsAt(params []Value, i int) []string {
	if i >= len(params) || params[i].Kind != KindList {
		return nil
	}
	var out []string
	for _, v := range params[i].List {
		if v.Kind == KindString {
			out = append(out, v.Str)
		}
	}
	return out
}
