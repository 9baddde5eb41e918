// Package vectorize maps a set of named, shaped variables onto one flat
// float64 vector and back.
//
// A Mapper is built once from the variables a sampler works on. Each variable
// gets a contiguous Slice of the flat vector sized to its element count; the
// slices partition [0, Dimensions()) in first-appearance order and never
// change afterwards.
//
// Values are flattened in row-major order, so ToVector followed by
// FromVector writes back bit-identical values.
//
// Variables are referenced, never copied: the Mapper reads and writes them
// through the Variable interface.
package vectorize
