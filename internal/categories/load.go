package categories

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a category table from a YAML file of the form
//
//	Images: [.jpg, .png]
//	Documents: [.pdf]
//	Others: []
//
// Mapping order is declaration order.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read categories file %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid categories file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML category mapping. A plain map would lose key order, so the
// document is walked as a yaml.Node.
func Parse(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("expected a mapping of category names to extension lists")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of category names to extension lists", root.Line)
	}

	var cats []Category
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]

		var exts []string
		switch {
		case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
		case val.Kind == yaml.SequenceNode:
			if err := val.Decode(&exts); err != nil {
				return nil, fmt.Errorf("line %d: category %q: %w", val.Line, key.Value, err)
			}
		default:
			return nil, fmt.Errorf("line %d: category %q must list extensions as a sequence", val.Line, key.Value)
		}
		cats = append(cats, Category{Name: key.Value, Extensions: exts})
	}

	return New(cats)
}

// Marshal renders t in the format LoadFile reads.
func Marshal(t *Table) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range t.categories {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, e := range c.Extensions {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e})
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}
		if c.Name == t.fallback {
			key.HeadComment = "fallback: files matching no other category"
		}
		root.Content = append(root.Content, key, seq)
	}

	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "dirkit category table: folder name -> extensions",
		Content:     []*yaml.Node{root},
	}
	return yaml.Marshal(doc)
}
