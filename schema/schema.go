package schema

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/restructure"
	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/hash"
)

// Schema is a parsed schema document. It is immutable and safe for
// concurrent use.
type Schema struct {
	root        restructure.Type
	types       map[string]restructure.Type
	names       []string
	fingerprint uint64
}

// Parse builds a schema from a YAML document.
func Parse(src []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSchema, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", errs.ErrSchema)
	}

	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, schemaError(top, "", "document must be a mapping")
	}

	var typesNode, rootNode *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "types":
			typesNode = value
		case "root":
			rootNode = value
		default:
			return nil, schemaError(key, "", "unknown section %q", key.Value)
		}
	}

	b, err := newBuilder(typesNode)
	if err != nil {
		return nil, err
	}

	// every named type is built so that errors in unused types surface
	for _, name := range b.order {
		if _, err := b.named(name, "types."+name); err != nil {
			return nil, err
		}
	}

	if rootNode == nil {
		return nil, schemaError(top, "", "missing root")
	}

	root, err := b.build(rootNode, "root")
	if err != nil {
		return nil, err
	}

	s := &Schema{
		root:        root,
		types:       b.built,
		names:       b.order,
		fingerprint: hash.Fingerprint(src),
	}

	restructure.Logger().Debug("schema parsed",
		zap.Int("types", len(s.names)),
		zap.String("fingerprint", fmt.Sprintf("%016x", s.fingerprint)))

	return s, nil
}

// ParseFile reads and parses a schema file.
func ParseFile(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Root returns the root type.
func (s *Schema) Root() restructure.Type {
	return s.root
}

// Type returns a named type.
func (s *Schema) Type(name string) (restructure.Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Names returns the named types in declaration order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Fingerprint returns the xxHash64 of the schema source.
func (s *Schema) Fingerprint() uint64 {
	return s.fingerprint
}

// Decode decodes data with the root type.
func (s *Schema) Decode(data []byte) (any, error) {
	return restructure.Unmarshal(s.root, data)
}

// Encode encodes value with the root type.
func (s *Schema) Encode(value any) ([]byte, error) {
	return restructure.Marshal(s.root, value)
}

// Size returns the encoded size of value under the root type.
func (s *Schema) Size(value any) (int, error) {
	return s.root.Size(value, nil)
}

func schemaError(node *yaml.Node, path string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}

	return fmt.Errorf("%w: line %d: %s", errs.ErrSchema, node.Line, msg)
}
