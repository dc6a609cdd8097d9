// Package zipwire decodes the local-file-entry stream of a ZIP-like
// archive held fully in memory.
//
// Only the sequence of local file headers is walked. The trailing
// directory section is never parsed; its signature is what terminates
// iteration. Writing, zip64, encryption, and non-DEFLATE compression
// methods are out of scope.
package zipwire
