package restructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// VersionEntry is one entry of a version table: a FieldList or a nested
// *VersionedStruct that takes over once the outer discriminant is known.
type VersionEntry interface {
	isVersionEntry()
}

// FieldList is the field set of one version.
type FieldList []Field

func (FieldList) isVersionEntry() {}

func (*VersionedStruct) isVersionEntry() {}

// WithHeader sets fields shared by every version, decoded after the
// discriminant and before the version specific fields.
func WithHeader(fields ...Field) StructOption {
	return options.NoError(func(c *structConfig) {
		c.header = fields
	})
}

// WithVersionKey sets the record key holding the discriminant. The default
// is "version"; an empty key is rejected and the default kept.
func WithVersionKey(key string) StructOption {
	return options.New(func(c *structConfig) error {
		if key == "" {
			return fmt.Errorf("%w: empty version key", errs.ErrInvalidValue)
		}
		c.versionKey = key

		return nil
	})
}

// VersionedStruct selects its field set from a version table keyed by a
// discriminant, read either from the stream or from a field of the
// enclosing scope.
type VersionedStruct struct {
	tag      Type
	tagPath  string
	versions map[any]VersionEntry
	cfg      structConfig
}

var _ Type = (*VersionedStruct)(nil)

// NewVersionedStruct creates a versioned struct whose discriminant is decoded
// with tag. Numeric table keys of any Go kind match decoded integers.
func NewVersionedStruct(tag Type, versions map[any]VersionEntry, opts ...StructOption) *VersionedStruct {
	return &VersionedStruct{tag: tag, versions: normalizeVersions(versions), cfg: newStructConfig(opts)}
}

// NewVersionedStructByPath creates a versioned struct whose discriminant is
// the value at path in the enclosing scope, e.g. "version".
func NewVersionedStructByPath(path string, versions map[any]VersionEntry, opts ...StructOption) *VersionedStruct {
	return &VersionedStruct{tagPath: path, versions: normalizeVersions(versions), cfg: newStructConfig(opts)}
}

func normalizeVersions(versions map[any]VersionEntry) map[any]VersionEntry {
	out := make(map[any]VersionEntry, len(versions))
	for k, v := range versions {
		out[normalizeKey(k)] = v
	}

	return out
}

func (t *VersionedStruct) entry(version any) (VersionEntry, error) {
	key := normalizeKey(version)
	if !isHashable(key) {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknownVersion, version)
	}

	e, ok := t.versions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknownVersion, version)
	}

	return e, nil
}

// nestedFor returns the nested versioned struct of e for encoding. A nested
// struct storing its discriminant under the same key would write a single
// value for both discriminants.
func (t *VersionedStruct) nestedFor(e VersionEntry) (*VersionedStruct, error) {
	nested, ok := e.(*VersionedStruct)
	if !ok {
		return nil, nil
	}

	if nested.cfg.versionKey == t.cfg.versionKey {
		return nil, fmt.Errorf("%w: %q, set WithVersionKey on the nested struct", errs.ErrVersionKeyConflict, t.cfg.versionKey)
	}

	return nested, nil
}

func (t *VersionedStruct) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	return t.DecodeLength(s, parent, 0)
}

// DecodeLength decodes with a declared byte length.
func (t *VersionedStruct) DecodeLength(s *stream.DecodeStream, parent *DecodeContext, length int) (Record, error) {
	ctx := newDecodeScope(s, parent, length)

	var version any
	if t.tag != nil {
		v, err := t.tag.Decode(s, ctx)
		if err != nil {
			return nil, fmt.Errorf("version tag: %w", err)
		}
		version = v
	} else {
		version, _ = parent.Lookup(t.tagPath)
	}
	ctx.Value[t.cfg.versionKey] = version

	if err := decodeFields(s, ctx, t.cfg.header); err != nil {
		return nil, err
	}

	e, err := t.entry(version)
	if err != nil {
		return nil, err
	}
	Logger().Debug("version dispatch", zap.Any("version", version), zap.Int("offset", ctx.StartOffset))

	if nested, ok := e.(*VersionedStruct); ok {
		rec, err := nested.DecodeLength(s, parent, 0)
		if err != nil {
			return nil, err
		}
		if inner, shadowed := rec[t.cfg.versionKey]; shadowed && !valuesEqual(inner, version) {
			Logger().Warn("nested version shadows outer version",
				zap.String("key", t.cfg.versionKey), zap.Any("outer", version), zap.Any("inner", inner))
		}
		for k, v := range ctx.Value {
			if _, exists := rec[k]; !exists {
				rec[k] = v
			}
		}

		return rec, nil
	}

	if err := decodeFields(s, ctx, e.(FieldList)); err != nil {
		return nil, err
	}

	if t.cfg.process != nil {
		if err := t.cfg.process(ctx.Value, ctx); err != nil {
			return nil, err
		}
	}

	return ctx.Value, nil
}

// version returns the discriminant of rec, falling back to the enclosing
// scope for path based tags.
func (t *VersionedStruct) version(rec Record, parent *EncodeContext) any {
	if v, ok := rec[t.cfg.versionKey]; ok {
		return v
	}

	if t.tag == nil {
		v, _ := parent.Lookup(t.tagPath)
		return v
	}

	return nil
}

// Size fails with errs.ErrSize without a value, since the field set depends
// on the discriminant.
func (t *VersionedStruct) Size(value any, parent *EncodeContext) (int, error) {
	rec, ok := asRecord(value)
	if !ok {
		return 0, fmt.Errorf("%w: versioned struct cannot size %T", errs.ErrInvalidValue, value)
	}
	if rec == nil {
		return 0, fmt.Errorf("%w: versioned struct needs a value", errs.ErrSize)
	}

	return t.measure(&EncodeContext{Parent: parent, Value: rec}, true)
}

func (t *VersionedStruct) measure(ctx *EncodeContext, includePointers bool) (int, error) {
	version := t.version(ctx.Value, ctx.Parent)

	total := 0
	if t.tag != nil {
		n, err := t.tag.Size(version, ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}

	n, err := measureFields(ctx, t.cfg.header)
	if err != nil {
		return 0, err
	}
	total += n

	e, err := t.entry(version)
	if err != nil {
		return 0, err
	}

	nested, err := t.nestedFor(e)
	if err != nil {
		return 0, err
	}
	if nested != nil {
		// the nested struct flushes its own pointers right after itself
		n, err = nested.Size(ctx.Value, ctx.Parent)
	} else {
		n, err = measureFields(ctx, e.(FieldList))
	}
	if err != nil {
		return 0, err
	}
	total += n

	if includePointers {
		total += ctx.PointerSize
	}

	return total, nil
}

func (t *VersionedStruct) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	rec, err := encodableRecord(value, t.cfg.preEncode)
	if err != nil {
		return err
	}

	ctx := &EncodeContext{Parent: parent, Value: rec, StartOffset: s.Pos()}
	n, err := t.measure(ctx, false)
	if err != nil {
		return err
	}
	ctx.PointerSize = 0
	ctx.PointerOffset = s.Pos() + n

	version := t.version(rec, parent)
	if t.tag != nil {
		if err := t.tag.Encode(s, version, ctx); err != nil {
			return fmt.Errorf("version tag: %w", err)
		}
	}

	if err := encodeFields(s, ctx, t.cfg.header); err != nil {
		return err
	}

	e, err := t.entry(version)
	if err != nil {
		return err
	}

	nested, err := t.nestedFor(e)
	if err != nil {
		return err
	}
	if nested != nil {
		err = nested.Encode(s, rec, parent)
	} else {
		err = encodeFields(s, ctx, e.(FieldList))
	}
	if err != nil {
		return err
	}

	return ctx.flush(s)
}
