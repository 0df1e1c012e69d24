// Package hcl_adapter provides the HCL implementation of config.Loader. It
// parses network files, decodes their variable, evidence and sampling blocks
// with gohcl and binds CPT expressions to Go values through go-cty.
package hcl_adapter
