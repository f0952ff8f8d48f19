// Package clarity models the values and type signatures exchanged with
// simulated contracts.
//
// Every value has a single literal form (u100, true, 'ST1..., (list u1 u2),
// (ok u1), (err u101), (some u1), none, "text", (tuple (a u1))). String
// produces it and Parse reads it back, so literals double as the argument
// syntax for calls and the display form for results.
//
// Uints are 128-bit and backed by github.com/holiman/uint256. Arithmetic
// that leaves the range returns ErrOverflow or ErrUnderflow instead of
// wrapping.
//
// Encode and Decode provide a tagged JSON encoding used for persisted
// contract data.
package clarity
