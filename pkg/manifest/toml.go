package manifest

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// TOMLCodec handles package.toml manifests. Named exports are written as a
// [links.exports] table with sorted keys and read back in file order.
type TOMLCodec struct{}

func (TOMLCodec) Type() string                  { return "toml" }
func (TOMLCodec) FileName() string              { return TOMLFileName }
func (TOMLCodec) Supports(filename string) bool { return filename == TOMLFileName }

type tomlDoc struct {
	Repo         string           `toml:"repo,omitempty"`
	Links        *tomlLinks       `toml:"links,omitempty"`
	Dependencies []tomlDependency `toml:"dependencies,omitempty"`
}

type tomlLinks struct {
	Imports   string         `toml:"imports,omitempty"`
	Exports   any            `toml:"exports,omitempty"`
	Internals []tomlInternal `toml:"internals,omitempty"`
}

type tomlInternal struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

type tomlDependency struct {
	Repo   string `toml:"repo"`
	Branch string `toml:"branch,omitempty"`
	Commit string `toml:"commit,omitempty"`
}

func (TOMLCodec) Decode(data []byte) (*Document, error) {
	var raw tomlDoc
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{LegacyRepo: raw.Repo}
	for _, d := range raw.Dependencies {
		doc.Dependencies = append(doc.Dependencies, Dependency(d))
	}
	if raw.Links == nil {
		return doc, nil
	}

	doc.Links = &Links{Imports: raw.Links.Imports}
	for _, in := range raw.Links.Internals {
		doc.Links.Internals = append(doc.Links.Internals, InternalLink(in))
	}

	switch v := raw.Links.Exports.(type) {
	case nil:
	case string:
		doc.Links.Exports.Path = v
	case map[string]any:
		// md.Keys preserves file order; the decoded map does not.
		for _, k := range md.Keys() {
			if len(k) != 3 || k[0] != "links" || k[1] != "exports" {
				continue
			}
			path, ok := v[k[2]].(string)
			if !ok {
				return nil, fmt.Errorf("export %q must be a path", k[2])
			}
			doc.Links.Exports.Named = append(doc.Links.Exports.Named, NamedExport{Name: k[2], Path: path})
		}
	default:
		return nil, fmt.Errorf("exports must be a path or a table, got %T", v)
	}
	return doc, nil
}

func (TOMLCodec) Encode(doc *Document) ([]byte, error) {
	var raw tomlDoc
	if !doc.Links.IsZero() {
		raw.Links = &tomlLinks{Imports: doc.Links.Imports}
		switch e := doc.Links.Exports; {
		case e.IsNamed():
			named := make(map[string]string, len(e.Named))
			for _, x := range e.Named {
				named[x.Name] = x.Path
			}
			raw.Links.Exports = named
		case e.Path != "":
			raw.Links.Exports = e.Path
		}
		for _, in := range doc.Links.Internals {
			raw.Links.Internals = append(raw.Links.Internals, tomlInternal(in))
		}
	}
	for _, d := range doc.Dependencies {
		raw.Dependencies = append(raw.Dependencies, tomlDependency(d))
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
