// Package catalog resolves scanned codes to catalog items. It owns the local
// barcode index built from a bulk catalog fetch and the ordered cascade of
// remote lookup strategies used when the index misses.
package catalog
