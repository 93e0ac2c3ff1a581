package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles package.yaml manifests.
type YAMLCodec struct{}

func (YAMLCodec) Type() string     { return "yaml" }
func (YAMLCodec) FileName() string { return FileName }

func (YAMLCodec) Supports(filename string) bool {
	return filename == FileName || filename == "package.yml"
}

type yamlDoc struct {
	Repo         string           `yaml:"repo,omitempty"`
	Links        *yamlLinks       `yaml:"links,omitempty"`
	Dependencies []yamlDependency `yaml:"dependencies,omitempty"`
}

type yamlLinks struct {
	Imports   string         `yaml:"imports,omitempty"`
	Exports   yaml.Node      `yaml:"exports,omitempty"`
	Internals []yamlInternal `yaml:"internals,omitempty"`
}

type yamlInternal struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type yamlDependency struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch,omitempty"`
	Commit string `yaml:"commit,omitempty"`
}

func (YAMLCodec) Decode(data []byte) (*Document, error) {
	var raw yamlDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &Document{LegacyRepo: raw.Repo}
	for _, d := range raw.Dependencies {
		doc.Dependencies = append(doc.Dependencies, Dependency(d))
	}
	if raw.Links == nil {
		return doc, nil
	}

	exports, err := decodeYAMLExports(raw.Links.Exports)
	if err != nil {
		return nil, err
	}
	doc.Links = &Links{Imports: raw.Links.Imports, Exports: exports}
	for _, in := range raw.Links.Internals {
		doc.Links.Internals = append(doc.Links.Internals, InternalLink(in))
	}
	return doc, nil
}

// decodeYAMLExports accepts a scalar path or a mapping of name to path. The
// mapping keeps its declaration order. A zero node means the key is absent.
func decodeYAMLExports(n yaml.Node) (Exports, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return Exports{}, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return Exports{Path: n.Value}, nil
	case yaml.MappingNode:
		var e Exports
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return Exports{}, fmt.Errorf("line %d: export %q must be a path", v.Line, k.Value)
			}
			e.Named = append(e.Named, NamedExport{Name: k.Value, Path: v.Value})
		}
		return e, nil
	default:
		return Exports{}, fmt.Errorf("line %d: exports must be a path or a mapping", n.Line)
	}
}

// encodeYAMLExports returns a zero node, which the encoder omits, when there
// is nothing to export.
func encodeYAMLExports(e Exports) yaml.Node {
	switch {
	case e.IsNamed():
		n := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, x := range e.Named {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.Path},
			)
		}
		return n
	case e.Path != "":
		return yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Path}
	default:
		return yaml.Node{}
	}
}

func (YAMLCodec) Encode(doc *Document) ([]byte, error) {
	var raw yamlDoc
	if !doc.Links.IsZero() {
		raw.Links = &yamlLinks{
			Imports: doc.Links.Imports,
			Exports: encodeYAMLExports(doc.Links.Exports),
		}
		for _, in := range doc.Links.Internals {
			raw.Links.Internals = append(raw.Links.Internals, yamlInternal(in))
		}
	}
	for _, d := range doc.Dependencies {
		raw.Dependencies = append(raw.Dependencies, yamlDependency(d))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&raw); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
