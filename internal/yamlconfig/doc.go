// Package yamlconfig loads network files written in YAML. It produces the
// same config.Model as the HCL loader so both formats can be mixed in one
// run.
package yamlconfig
