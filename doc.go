// Package restructure describes binary record layouts declaratively and
// derives both a decoder and an encoder from one description.
//
// A layout is a tree of Type descriptors: numbers, strings, buffers, arrays,
// structs, versioned structs, bitfields, enums and pointers. Every descriptor
// implements the same three operations:
//
//   - Decode reads a value at the stream cursor
//   - Size reports exactly how many bytes Encode will write
//   - Encode writes a value at the stream cursor
//
// # Basic Usage
//
// Describing a length-prefixed name followed by an age:
//
//	person := restructure.NewStruct([]restructure.Field{
//	    restructure.F("name", restructure.NewString(restructure.LenPrefix(restructure.Uint8))),
//	    restructure.F("age", restructure.Uint8),
//	})
//
//	data, _ := restructure.Marshal(person, restructure.Record{"name": "devon", "age": 21})
//	// data == "\x05devon\x15"
//
//	v, _ := restructure.Unmarshal(person, data)
//	rec := v.(restructure.Record)
//
// # Decoded Values
//
// Integers decode to int; float, double and fixed point numbers to float64.
// Structs decode to Record, arrays to []any, bitfields to map[string]bool and
// lazy arrays to *LazyArray. Lazy pointers are stored in a Record as *Lazy;
// Record.Get and Record.Resolve materialize them.
//
// # Pointers
//
// A Pointer stores an offset inline and the target elsewhere. While encoding,
// every struct and length-prefixed array owns a pointer scope: the encoder
// first sizes the fixed fields to locate the pointer area, writes the fields,
// and then drains the queue of deferred targets. Nested scopes flush before
// control returns to their parent, so pointer areas nest with the structure.
//
// # Errors
//
// Failures wrap the sentinels of the errs package, e.g. errs.ErrSize when a
// size cannot be determined statically and errs.ErrUnknownVersion when a
// discriminant has no version table entry.
//
// # Schemas
//
// Descriptor trees can also be declared in YAML and loaded with the schema
// subpackage; schema.Registry caches parsed schemas by source fingerprint.
package restructure
