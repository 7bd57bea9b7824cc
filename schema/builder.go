package schema

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/restructure"
	"github.com/arloliu/restructure/compress"
	"github.com/arloliu/restructure/format"
	"github.com/arloliu/restructure/stream"
)

var numbers = map[string]*restructure.Number{}

func init() {
	for _, n := range []*restructure.Number{
		restructure.Uint8, restructure.Int8,
		restructure.Uint16BE, restructure.Uint16LE,
		restructure.Uint24BE, restructure.Uint24LE,
		restructure.Uint32BE, restructure.Uint32LE,
		restructure.Int16BE, restructure.Int16LE,
		restructure.Int24BE, restructure.Int24LE,
		restructure.Int32BE, restructure.Int32LE,
		restructure.FloatBE, restructure.FloatLE,
		restructure.DoubleBE, restructure.DoubleLE,
		restructure.Fixed16BE, restructure.Fixed16LE,
		restructure.Fixed32BE, restructure.Fixed32LE,
	} {
		numbers[n.String()] = n
	}

	// unsuffixed names are big endian
	for _, name := range []string{"uint16", "uint24", "uint32", "int16", "int24", "int32", "float", "double", "fixed16", "fixed32"} {
		numbers[name] = numbers[name+"be"]
	}
}

var pointerTypes = map[string]restructure.PointerType{
	"local":     restructure.PointerLocal,
	"immediate": restructure.PointerImmediate,
	"parent":    restructure.PointerParent,
	"global":    restructure.PointerGlobal,
}

type builder struct {
	defs     map[string]*yaml.Node
	order    []string
	built    map[string]restructure.Type
	building map[string][]*lateRef
}

func newBuilder(types *yaml.Node) (*builder, error) {
	b := &builder{
		defs:     map[string]*yaml.Node{},
		built:    map[string]restructure.Type{},
		building: map[string][]*lateRef{},
	}

	if types == nil || isNull(types) {
		return b, nil
	}

	if types.Kind != yaml.MappingNode {
		return nil, schemaError(types, "types", "must be a mapping")
	}

	for i := 0; i+1 < len(types.Content); i += 2 {
		key := types.Content[i]
		if _, dup := b.defs[key.Value]; dup {
			return nil, schemaError(key, "types", "duplicate type %q", key.Value)
		}
		if _, isNumber := numbers[key.Value]; isNumber {
			return nil, schemaError(key, "types", "%q shadows a number type", key.Value)
		}

		b.defs[key.Value] = types.Content[i+1]
		b.order = append(b.order, key.Value)
	}

	return b, nil
}

// named returns the named type, building it on first use. A reference made
// while the type is still being built resolves once the build completes.
func (b *builder) named(name, path string) (restructure.Type, error) {
	if t, ok := b.built[name]; ok {
		return t, nil
	}

	if refs, inProgress := b.building[name]; inProgress {
		ref := &lateRef{name: name}
		b.building[name] = append(refs, ref)

		return ref, nil
	}

	b.building[name] = nil
	t, err := b.build(b.defs[name], path)
	if err != nil {
		return nil, err
	}

	for _, ref := range b.building[name] {
		ref.t = t
	}
	delete(b.building, name)
	b.built[name] = t

	return t, nil
}

func (b *builder) build(node *yaml.Node, path string) (restructure.Type, error) {
	if node.Kind == yaml.AliasNode {
		return b.build(node.Alias, path)
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if n, ok := numbers[node.Value]; ok {
			return n, nil
		}
		if _, ok := b.defs[node.Value]; ok {
			return b.named(node.Value, "types."+node.Value)
		}

		return nil, schemaError(node, path, "unknown type %q", node.Value)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return nil, schemaError(node, path, "type mapping must have exactly one key")
		}
	default:
		return nil, schemaError(node, path, "expected a type name or mapping")
	}

	kind, body := node.Content[0].Value, node.Content[1]
	path = path + "." + kind

	switch kind {
	case "number":
		return b.number(body, path)
	case "string":
		return b.str(body, path)
	case "buffer":
		return b.buffer(body, path)
	case "array", "lazy_array":
		return b.array(body, path, kind == "lazy_array")
	case "struct":
		fields, err := b.fields(body, path)
		if err != nil {
			return nil, err
		}

		return restructure.NewStruct(fields), nil
	case "versioned":
		return b.versioned(body, path)
	case "pointer":
		return b.pointer(body, path)
	case "bitfield":
		return b.bitfield(body, path)
	case "enum":
		return b.enum(body, path)
	case "boolean":
		t, err := b.build(body, path)
		if err != nil {
			return nil, err
		}

		return restructure.NewBoolean(t), nil
	case "reserved":
		return b.reserved(body, path)
	case "optional":
		return b.optional(body, path)
	case "compressed":
		return b.compressed(body, path)
	default:
		return nil, schemaError(node.Content[0], path, "unknown descriptor kind %q", kind)
	}
}

// options collects the keys of a descriptor body, rejecting unknown ones.
// A null body yields no options.
func options(body *yaml.Node, path string, allowed ...string) (map[string]*yaml.Node, error) {
	out := map[string]*yaml.Node{}
	if isNull(body) {
		return out, nil
	}

	if body.Kind != yaml.MappingNode {
		return nil, schemaError(body, path, "expected a mapping of options")
	}

	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return nil, schemaError(key, path, "unknown option %q", key.Value)
		}
		out[key.Value] = body.Content[i+1]
	}

	return out, nil
}

func required(opts map[string]*yaml.Node, body *yaml.Node, path, key string) (*yaml.Node, error) {
	n, ok := opts[key]
	if !ok {
		return nil, schemaError(body, path, "missing %q", key)
	}

	return n, nil
}

func (b *builder) numberType(node *yaml.Node, path string) (*restructure.Number, error) {
	t, err := b.build(node, path)
	if err != nil {
		return nil, err
	}

	n, ok := t.(*restructure.Number)
	if !ok {
		return nil, schemaError(node, path, "expected a number type")
	}

	return n, nil
}

func (b *builder) number(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "fraction_bits")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	base, err := b.numberType(typeNode, path)
	if err != nil {
		return nil, err
	}

	var numOpts []restructure.NumberOption
	if bitsNode, ok := opts["fraction_bits"]; ok {
		bits, err := decodeInt(bitsNode, path)
		if err != nil {
			return nil, err
		}
		numOpts = append(numOpts, restructure.WithFractionBits(bits))
	}

	n, err := restructure.NewNumber(base.Kind(), base.Order(), numOpts...)
	if err != nil {
		return nil, schemaError(body, path, "%v", err)
	}

	return n, nil
}

func (b *builder) length(node *yaml.Node, path string) (restructure.Length, error) {
	if node == nil || isNull(node) {
		return restructure.Length{}, nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			n, err := decodeInt(node, path)
			if err != nil {
				return restructure.Length{}, err
			}
			if n < 0 {
				return restructure.Length{}, schemaError(node, path, "negative length %d", n)
			}

			return restructure.LenConst(n), nil
		}

		return restructure.LenField(node.Value), nil
	case yaml.MappingNode:
		opts, err := options(node, path, "prefix")
		if err != nil {
			return restructure.Length{}, err
		}

		prefixNode, err := required(opts, node, path, "prefix")
		if err != nil {
			return restructure.Length{}, err
		}

		n, err := b.numberType(prefixNode, path+".prefix")
		if err != nil {
			return restructure.Length{}, err
		}

		return restructure.LenPrefix(n), nil
	default:
		return restructure.Length{}, schemaError(node, path, "invalid length")
	}
}

func (b *builder) str(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "length", "encoding")
	if err != nil {
		return nil, err
	}

	length, err := b.length(opts["length"], path+".length")
	if err != nil {
		return nil, err
	}

	var strOpts []restructure.StringOption
	if encNode, ok := opts["encoding"]; ok {
		if !stream.IsKnownEncoding(encNode.Value) {
			return nil, schemaError(encNode, path, "unknown encoding %q", encNode.Value)
		}
		strOpts = append(strOpts, restructure.WithEncoding(encNode.Value))
	}

	return restructure.NewString(length, strOpts...), nil
}

func (b *builder) buffer(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "length")
	if err != nil {
		return nil, err
	}

	length, err := b.length(opts["length"], path+".length")
	if err != nil {
		return nil, err
	}

	return restructure.NewBuffer(length), nil
}

func (b *builder) array(body *yaml.Node, path string, lazy bool) (restructure.Type, error) {
	opts, err := options(body, path, "type", "length", "bytes")
	if err != nil {
		return nil, err
	}

	itemNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	item, err := b.build(itemNode, path+".type")
	if err != nil {
		return nil, err
	}

	length, err := b.length(opts["length"], path+".length")
	if err != nil {
		return nil, err
	}

	var arrOpts []restructure.ArrayOption
	if bytesNode, ok := opts["bytes"]; ok {
		byBytes, err := decodeBool(bytesNode, path)
		if err != nil {
			return nil, err
		}
		if byBytes {
			arrOpts = append(arrOpts, restructure.WithByteLength())
		}
	}

	if lazy {
		return restructure.NewLazyArray(item, length, arrOpts...), nil
	}

	return restructure.NewArray(item, length, arrOpts...), nil
}

// fields reads a sequence of single key mappings, one per field.
func (b *builder) fields(node *yaml.Node, path string) ([]restructure.Field, error) {
	if isNull(node) {
		return nil, nil
	}

	if node.Kind != yaml.SequenceNode {
		return nil, schemaError(node, path, "fields must be a sequence")
	}

	fields := make([]restructure.Field, 0, len(node.Content))
	seen := map[string]bool{}
	for i, item := range node.Content {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, schemaError(item, itemPath, "field must be a single key mapping")
		}

		name := item.Content[0].Value
		if seen[name] {
			return nil, schemaError(item, itemPath, "duplicate field %q", name)
		}
		seen[name] = true

		t, err := b.build(item.Content[1], itemPath+"."+name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, restructure.F(name, t))
	}

	return fields, nil
}

func (b *builder) versioned(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "tag", "path", "key", "header", "versions")
	if err != nil {
		return nil, err
	}

	versionsNode, err := required(opts, body, path, "versions")
	if err != nil {
		return nil, err
	}
	if versionsNode.Kind != yaml.MappingNode {
		return nil, schemaError(versionsNode, path, "versions must be a mapping")
	}

	versions := make(map[any]restructure.VersionEntry, len(versionsNode.Content)/2)
	for i := 0; i+1 < len(versionsNode.Content); i += 2 {
		keyNode, entryNode := versionsNode.Content[i], versionsNode.Content[i+1]

		var key any
		if err := keyNode.Decode(&key); err != nil {
			return nil, schemaError(keyNode, path, "invalid version key: %v", err)
		}

		entry, err := b.versionEntry(entryNode, fmt.Sprintf("%s.versions[%v]", path, key))
		if err != nil {
			return nil, err
		}
		versions[key] = entry
	}

	var structOpts []restructure.StructOption
	if keyNode, ok := opts["key"]; ok {
		if keyNode.Value == "" {
			return nil, schemaError(keyNode, path, "empty version key")
		}
		structOpts = append(structOpts, restructure.WithVersionKey(keyNode.Value))
	}
	if headerNode, ok := opts["header"]; ok {
		header, err := b.fields(headerNode, path+".header")
		if err != nil {
			return nil, err
		}
		structOpts = append(structOpts, restructure.WithHeader(header...))
	}

	tagNode, hasTag := opts["tag"]
	pathNode, hasPath := opts["path"]
	switch {
	case hasTag && hasPath:
		return nil, schemaError(body, path, "tag and path are exclusive")
	case hasTag:
		tag, err := b.build(tagNode, path+".tag")
		if err != nil {
			return nil, err
		}

		return restructure.NewVersionedStruct(tag, versions, structOpts...), nil
	case hasPath:
		return restructure.NewVersionedStructByPath(pathNode.Value, versions, structOpts...), nil
	default:
		return nil, schemaError(body, path, "missing tag or path")
	}
}

func (b *builder) versionEntry(node *yaml.Node, path string) (restructure.VersionEntry, error) {
	if node.Kind == yaml.MappingNode {
		t, err := b.build(node, path)
		if err != nil {
			return nil, err
		}

		nested, ok := t.(*restructure.VersionedStruct)
		if !ok {
			return nil, schemaError(node, path, "version entry must be a field list or a versioned struct")
		}

		return nested, nil
	}

	fields, err := b.fields(node, path)
	if err != nil {
		return nil, err
	}

	return restructure.FieldList(fields), nil
}

func (b *builder) pointer(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "offset", "type", "kind", "relative_to", "null", "allow_null", "lazy")
	if err != nil {
		return nil, err
	}

	offsetNode, err := required(opts, body, path, "offset")
	if err != nil {
		return nil, err
	}

	offset, err := b.numberType(offsetNode, path+".offset")
	if err != nil {
		return nil, err
	}

	var target restructure.Type
	if typeNode, ok := opts["type"]; ok && !isNull(typeNode) {
		if target, err = b.build(typeNode, path+".type"); err != nil {
			return nil, err
		}
	}

	var ptrOpts []restructure.PointerOption
	if kindNode, ok := opts["kind"]; ok {
		pt, known := pointerTypes[kindNode.Value]
		if !known {
			return nil, schemaError(kindNode, path, "unknown pointer kind %q", kindNode.Value)
		}
		ptrOpts = append(ptrOpts, restructure.WithPointerType(pt))
	}
	if relNode, ok := opts["relative_to"]; ok {
		ptrOpts = append(ptrOpts, restructure.WithRelativeTo(relNode.Value))
	}
	if nullNode, ok := opts["null"]; ok {
		v, err := decodeInt(nullNode, path)
		if err != nil {
			return nil, err
		}
		ptrOpts = append(ptrOpts, restructure.WithNullValue(v))
	}
	if allowNode, ok := opts["allow_null"]; ok {
		allow, err := decodeBool(allowNode, path)
		if err != nil {
			return nil, err
		}
		ptrOpts = append(ptrOpts, restructure.WithAllowNull(allow))
	}
	if lazyNode, ok := opts["lazy"]; ok {
		lazy, err := decodeBool(lazyNode, path)
		if err != nil {
			return nil, err
		}
		if lazy {
			ptrOpts = append(ptrOpts, restructure.WithLazy())
		}
	}

	return restructure.NewPointer(offset, target, ptrOpts...), nil
}

func (b *builder) bitfield(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "flags")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	n, err := b.numberType(typeNode, path+".type")
	if err != nil {
		return nil, err
	}

	flagsNode, err := required(opts, body, path, "flags")
	if err != nil {
		return nil, err
	}

	var flags []string
	if err := flagsNode.Decode(&flags); err != nil {
		return nil, schemaError(flagsNode, path, "flags must be a list of names: %v", err)
	}

	return restructure.NewBitfield(n, flags), nil
}

func (b *builder) enum(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "options")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	n, err := b.numberType(typeNode, path+".type")
	if err != nil {
		return nil, err
	}

	optionsNode, err := required(opts, body, path, "options")
	if err != nil {
		return nil, err
	}

	var values []any
	if err := optionsNode.Decode(&values); err != nil {
		return nil, schemaError(optionsNode, path, "options must be a list: %v", err)
	}

	return restructure.NewEnum(n, values), nil
}

func (b *builder) reserved(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "count")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	t, err := b.build(typeNode, path+".type")
	if err != nil {
		return nil, err
	}

	count, err := b.length(opts["count"], path+".count")
	if err != nil {
		return nil, err
	}

	return restructure.NewReserved(t, count), nil
}

func (b *builder) optional(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "present", "if")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	t, err := b.build(typeNode, path+".type")
	if err != nil {
		return nil, err
	}

	presentNode, hasPresent := opts["present"]
	ifNode, hasIf := opts["if"]
	switch {
	case hasPresent && hasIf:
		return nil, schemaError(body, path, "present and if are exclusive")
	case hasPresent:
		present, err := decodeBool(presentNode, path)
		if err != nil {
			return nil, err
		}

		return restructure.NewOptional(t, restructure.WithCondition(present)), nil
	case hasIf:
		field := ifNode.Value

		return restructure.NewOptional(t, restructure.WithConditionFunc(func(sc restructure.Scope) bool {
			v, ok := sc.Lookup(field)
			return ok && truthy(v)
		})), nil
	default:
		return restructure.NewOptional(t), nil
	}
}

func (b *builder) compressed(body *yaml.Node, path string) (restructure.Type, error) {
	opts, err := options(body, path, "type", "length", "codec")
	if err != nil {
		return nil, err
	}

	typeNode, err := required(opts, body, path, "type")
	if err != nil {
		return nil, err
	}

	inner, err := b.build(typeNode, path+".type")
	if err != nil {
		return nil, err
	}

	lengthNode, err := required(opts, body, path, "length")
	if err != nil {
		return nil, err
	}

	length, err := b.length(lengthNode, path+".length")
	if err != nil {
		return nil, err
	}

	codecName := "zlib"
	if codecNode, ok := opts["codec"]; ok {
		codecName = codecNode.Value
	}

	ct, ok := format.ParseCompressionType(codecName)
	if !ok {
		return nil, schemaError(body, path, "unknown codec %q", codecName)
	}

	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, schemaError(body, path, "%v", err)
	}

	return restructure.NewCompressed(inner, length, codec), nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func decodeInt(node *yaml.Node, path string) (int, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!int" {
		var n int
		if err := node.Decode(&n); err == nil {
			return n, nil
		}
	}

	return 0, schemaError(node, path, "expected an integer, got %q", node.Value)
}

func decodeBool(node *yaml.Node, path string) (bool, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!bool" {
		var v bool
		if err := node.Decode(&v); err == nil {
			return v, nil
		}
	}

	return false, schemaError(node, path, "expected a boolean, got %q", node.Value)
}

// truthy reports whether a looked up value enables an optional field.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}
