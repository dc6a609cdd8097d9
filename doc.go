// Package ziptable decodes remote ZIP-like archives into ordered
// (fileName, content) tables.
//
// The archive is fetched whole into memory, its local file entries are
// walked in byte order, each DEFLATE payload is inflated, and the result
// is projected to rows. The trailing directory section is never parsed;
// it only serves as the implicit end-of-entries boundary.
//
// Decoding is synchronous and deterministic: rows come out in the exact
// order entries appear in the archive. Independent calls share no state
// and may run concurrently.
package ziptable
