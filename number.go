package restructure

import (
	"fmt"
	"math"

	"github.com/arloliu/restructure/endian"
	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// NumberKind identifies a fixed width numeric encoding.
type NumberKind uint8

const (
	KindUint8 NumberKind = iota + 1
	KindUint16
	KindUint24
	KindUint32
	KindInt8
	KindInt16
	KindInt24
	KindInt32
	KindFloat
	KindDouble
	KindFixed16
	KindFixed32
)

// Order is the byte order of a multi-byte number.
type Order uint8

const (
	BigEndian Order = iota
	LittleEndian
)

func (o Order) engine() endian.EndianEngine {
	if o == LittleEndian {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}

type numberCodec struct {
	name  string
	width int
	// integers accept [lo, hi]; floats ignore the range
	lo, hi int64
	read   func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error)
	write  func(s *stream.EncodeStream, e endian.EndianEngine, v float64)
	float  bool
}

var int16Codec = numberCodec{
	name: "int16", width: 2, lo: math.MinInt16, hi: math.MaxInt16,
	read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
		v, err := s.ReadInt16(e)
		return float64(v), err
	},
	write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteInt16(e, int16(v)) },
}

var int32Codec = numberCodec{
	name: "int32", width: 4, lo: math.MinInt32, hi: math.MaxInt32,
	read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
		v, err := s.ReadInt32(e)
		return float64(v), err
	},
	write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteInt32(e, int32(v)) },
}

// numberCodecs maps every kind to its width and primitive read/write.
var numberCodecs = map[NumberKind]numberCodec{
	KindUint8: {
		name: "uint8", width: 1, lo: 0, hi: math.MaxUint8,
		read: func(s *stream.DecodeStream, _ endian.EndianEngine) (float64, error) {
			v, err := s.ReadUint8()
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, _ endian.EndianEngine, v float64) { s.WriteUint8(uint8(v)) },
	},
	KindUint16: {
		name: "uint16", width: 2, lo: 0, hi: math.MaxUint16,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			v, err := s.ReadUint16(e)
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteUint16(e, uint16(v)) },
	},
	KindUint24: {
		name: "uint24", width: 3, lo: 0, hi: 1<<24 - 1,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			v, err := s.ReadUint24(e)
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteUint24(e, uint32(v)) },
	},
	KindUint32: {
		name: "uint32", width: 4, lo: 0, hi: math.MaxUint32,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			v, err := s.ReadUint32(e)
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteUint32(e, uint32(v)) },
	},
	KindInt8: {
		name: "int8", width: 1, lo: math.MinInt8, hi: math.MaxInt8,
		read: func(s *stream.DecodeStream, _ endian.EndianEngine) (float64, error) {
			v, err := s.ReadInt8()
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, _ endian.EndianEngine, v float64) { s.WriteInt8(int8(v)) },
	},
	KindInt16: int16Codec,
	KindInt24: {
		name: "int24", width: 3, lo: -1 << 23, hi: 1<<23 - 1,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			v, err := s.ReadInt24(e)
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteInt24(e, int32(v)) },
	},
	KindInt32: int32Codec,
	KindFloat: {
		name: "float", width: 4, float: true,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			v, err := s.ReadFloat32(e)
			return float64(v), err
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteFloat32(e, float32(v)) },
	},
	KindDouble: {
		name: "double", width: 8, float: true,
		read: func(s *stream.DecodeStream, e endian.EndianEngine) (float64, error) {
			return s.ReadFloat64(e)
		},
		write: func(s *stream.EncodeStream, e endian.EndianEngine, v float64) { s.WriteFloat64(e, v) },
	},
	// fixed point numbers are stored as signed integers of the same width
	KindFixed16: int16Codec,
	KindFixed32: int32Codec,
}

// Number is a fixed width integer, float or fixed point descriptor.
type Number struct {
	kind     NumberKind
	order    Order
	codec    numberCodec
	fracBits int
}

var _ Type = (*Number)(nil)

// NumberOption configures a Number.
type NumberOption = options.Option[*Number]

// WithFractionBits sets the number of fraction bits of a fixed point number.
// It defaults to half the storage width.
func WithFractionBits(bits int) NumberOption {
	return options.New(func(n *Number) error {
		if bits < 0 || bits > n.codec.width*8 {
			return fmt.Errorf("%w: %d fraction bits for %d-bit fixed", errs.ErrInvalidValue, bits, n.codec.width*8)
		}
		n.fracBits = bits

		return nil
	})
}

// NewNumber creates a numeric descriptor.
//
// Parameters:
//   - kind: storage kind, e.g. KindUint16 or KindFixed32
//   - order: byte order, ignored for single byte kinds
//   - opts: WithFractionBits for fixed point kinds
//
// Returns:
//   - *Number: the descriptor
//   - error: unknown kind or invalid option
func NewNumber(kind NumberKind, order Order, opts ...NumberOption) (*Number, error) {
	codec, ok := numberCodecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown number kind %d", errs.ErrInvalidValue, kind)
	}

	n := &Number{kind: kind, order: order, codec: codec}
	if n.IsFixed() {
		n.fracBits = codec.width * 4
	}

	if err := options.Apply(n, opts...); err != nil {
		return nil, err
	}

	return n, nil
}

func mustNumber(kind NumberKind, order Order) *Number {
	n, err := NewNumber(kind, order)
	if err != nil {
		panic(err)
	}

	return n
}

// Predefined numeric descriptors. Unsuffixed names are big-endian.
var (
	Uint8    = mustNumber(KindUint8, BigEndian)
	Uint16BE = mustNumber(KindUint16, BigEndian)
	Uint16LE = mustNumber(KindUint16, LittleEndian)
	Uint16   = Uint16BE
	Uint24BE = mustNumber(KindUint24, BigEndian)
	Uint24LE = mustNumber(KindUint24, LittleEndian)
	Uint24   = Uint24BE
	Uint32BE = mustNumber(KindUint32, BigEndian)
	Uint32LE = mustNumber(KindUint32, LittleEndian)
	Uint32   = Uint32BE

	Int8    = mustNumber(KindInt8, BigEndian)
	Int16BE = mustNumber(KindInt16, BigEndian)
	Int16LE = mustNumber(KindInt16, LittleEndian)
	Int16   = Int16BE
	Int24BE = mustNumber(KindInt24, BigEndian)
	Int24LE = mustNumber(KindInt24, LittleEndian)
	Int24   = Int24BE
	Int32BE = mustNumber(KindInt32, BigEndian)
	Int32LE = mustNumber(KindInt32, LittleEndian)
	Int32   = Int32BE

	FloatBE  = mustNumber(KindFloat, BigEndian)
	FloatLE  = mustNumber(KindFloat, LittleEndian)
	Float    = FloatBE
	DoubleBE = mustNumber(KindDouble, BigEndian)
	DoubleLE = mustNumber(KindDouble, LittleEndian)
	Double   = DoubleBE

	Fixed16BE = mustNumber(KindFixed16, BigEndian)
	Fixed16LE = mustNumber(KindFixed16, LittleEndian)
	Fixed16   = Fixed16BE
	Fixed32BE = mustNumber(KindFixed32, BigEndian)
	Fixed32LE = mustNumber(KindFixed32, LittleEndian)
	Fixed32   = Fixed32BE
)

// Kind returns the storage kind.
func (n *Number) Kind() NumberKind {
	return n.kind
}

// Order returns the byte order.
func (n *Number) Order() Order {
	return n.order
}

// IsFixed reports whether n is a fixed point number.
func (n *Number) IsFixed() bool {
	return n.kind == KindFixed16 || n.kind == KindFixed32
}

// IsFloat reports whether n decodes to a float64.
func (n *Number) IsFloat() bool {
	return n.codec.float || n.IsFixed()
}

func (n *Number) width() int {
	return n.codec.width
}

func (n *Number) String() string {
	name := n.codec.name
	switch n.kind {
	case KindFixed16:
		name = "fixed16"
	case KindFixed32:
		name = "fixed32"
	case KindUint8, KindInt8:
		return name
	}

	if n.order == LittleEndian {
		return name + "le"
	}

	return name + "be"
}

// Decode reads the number. Integers decode to int; float, double and fixed
// point numbers decode to float64.
func (n *Number) Decode(s *stream.DecodeStream, _ *DecodeContext) (any, error) {
	v, err := n.codec.read(s, n.order.engine())
	if err != nil {
		return nil, err
	}

	switch {
	case n.IsFixed():
		return v / float64(int64(1)<<n.fracBits), nil
	case n.codec.float:
		return v, nil
	default:
		return int(v), nil
	}
}

// Size returns the storage width regardless of value.
func (n *Number) Size(_ any, _ *EncodeContext) (int, error) {
	return n.codec.width, nil
}

// Encode writes value, which may be any Go integer or float kind. Integer
// kinds reject values outside their range; fixed point values are scaled and
// truncated toward zero.
func (n *Number) Encode(s *stream.EncodeStream, value any, _ *EncodeContext) error {
	f, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("%w: %s cannot encode %T", errs.ErrInvalidValue, n, value)
	}

	if n.codec.float {
		n.codec.write(s, n.order.engine(), f)
		return nil
	}

	if n.IsFixed() {
		f *= float64(int64(1) << n.fracBits)
	}
	f = math.Trunc(f)

	if math.IsNaN(f) || f < float64(n.codec.lo) || f > float64(n.codec.hi) {
		return fmt.Errorf("%w: %v out of range for %s", errs.ErrInvalidValue, value, n)
	}
	n.codec.write(s, n.order.engine(), f)

	return nil
}

// encodeInt writes an internally computed count or offset.
func (n *Number) encodeInt(s *stream.EncodeStream, v int) error {
	return n.Encode(s, v, nil)
}
