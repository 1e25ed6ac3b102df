// Command exprgen converts an IFC EXPRESS schema into the YAML attribute table
// embedded by package schema.
//
//	go run ./internal/exprgen -in IFC4.exp -out tables/ifc4.yaml
//
// -in accepts a local path or an http(s) URL.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func main() {
	in := flag.String("in", "", "EXPRESS source: path or http(s) URL")
	out := flag.String("out", "", "output YAML path (stdout when empty)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(*in, *out, log); err != nil {
		log.Error("exprgen failed", "error", err)
		os.Exit(1)
	}
}

func run(in, out string, log *slog.Logger) error {
	if in == "" {
		return fmt.Errorf("exprgen: -in is required")
	}
	src, err := readSource(in)
	if err != nil {
		return err
	}
	s, err := parseExpress(string(src))
	if err != nil {
		return err
	}
	data, err := render(s, in)
	if err != nil {
		return err
	}
	log.Info("table generated", "schema", s.Name, "entities", len(s.Entities), "types", len(s.Types), "out", out)
	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func readSource(in string) ([]byte, error) {
	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") {
		return os.ReadFile(in)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exprgen: fetch %s: %w", in, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exprgen: fetch %s: %s", in, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

// render emits the table: defined types as a block list, one mapping per
// entity with its attributes on a single flow line.
func render(s *expressSchema, source string) ([]byte, error) {
	types := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range s.Types {
		types.Content = append(types.Content, scalar(t))
	}

	entities := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s.Entities {
		body := &yaml.Node{Kind: yaml.MappingNode}
		if e.Supertype != "" {
			body.Content = append(body.Content, scalar("supertype"), scalar(e.Supertype))
		}
		if len(e.Attributes) > 0 {
			attrs := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, a := range e.Attributes {
				attrs.Content = append(attrs.Content, scalar(a))
			}
			body.Content = append(body.Content, scalar("attributes"), attrs)
		}
		if len(body.Content) == 0 {
			body.Style = yaml.FlowStyle
		}
		entities.Content = append(entities.Content, scalar(e.Name), body)
	}

	key := scalar("schema")
	key.HeadComment = fmt.Sprintf("%s attribute table: explicit attributes per entity in declaration\n"+
		"order, inherited attributes excluded.\nSource: %s\nRegenerate with go generate ./engine/schema.",
		s.Name, source)
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		key, scalar(s.Name),
		scalar("types"), types,
		scalar("entities"), entities,
	}}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("exprgen: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
