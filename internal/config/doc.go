// Package config defines the format-agnostic model of a network file, along
// with the Loader interface implemented by each file format.
//
// The config.Model is the single source of truth for the builder package,
// which turns it into a bayes.Graph. Concrete loaders, such as for HCL and
// YAML, are provided in separate packages; MultiLoader dispatches a set of
// paths to them by file extension.
package config
