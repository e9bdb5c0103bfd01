// Package reference computes expected operator outputs from their
// mathematical definitions.
//
// Every function works on float64 copies of its inputs, independent of any
// backend kernel, and stores the result in the requested dtype. Inputs are
// never modified.
package reference
