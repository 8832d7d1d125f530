// Package output renders command results for healthqr-cli.
//
// Three formats are supported:
//
//   - table: aligned columns via text/tabwriter; slices of structs become
//     one row per element, a single struct becomes FIELD/VALUE pairs
//   - json: indented JSON
//   - yaml: YAML via gopkg.in/yaml.v3
//
// Struct fields tagged `table:"-"` are hidden from tables, and fields
// tagged `table:"wide"` appear only with --wide.
package output
