// Package schema loads restructure type descriptors from YAML documents.
//
// A schema names reusable types and a root type:
//
//	types:
//	  tableRecord:
//	    struct:
//	      - tag: {string: {length: 4}}
//	      - checkSum: uint32be
//	      - offset: uint32be
//	      - length: uint32be
//	root:
//	  struct:
//	    - sfntVersion: uint32be
//	    - numTables: uint16be
//	    - tables: {array: {type: tableRecord, length: numTables}}
//
// A type expression is a number name such as uint8, int16le or fixed32be, a
// reference to a named type, or a single key mapping naming a descriptor
// kind: number, string, buffer, array, lazy_array, struct, versioned,
// pointer, bitfield, enum, boolean, reserved, optional or compressed.
//
// Lengths are an integer, a field path such as numTables or
// parent.count, or a mapping {prefix: <number>} for a length stored in
// front of the data.
//
// Named types may refer to each other in any order, and recursively through
// pointers. Every error wraps errs.ErrSchema and names the offending path and
// source line.
package schema
