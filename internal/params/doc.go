// Package params provides named BFV parameter presets and loads parameter
// sets from CUE, YAML or JSON files.
//
// CUE files are unified with an embedded #Params schema before decoding, so
// type errors, unknown fields and plain_modulus <= 1 are reported with source
// positions. YAML files are decoded strictly: unknown fields are errors.
package params
