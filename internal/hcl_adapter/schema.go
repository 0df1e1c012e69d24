package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level content of a network file.
type fileRoot struct {
	Name      *string          `hcl:"name,optional"`
	Variables []*VariableBlock `hcl:"variable,block"`
	Evidence  []*EvidenceBlock `hcl:"evidence,block"`
	Sampling  []*SamplingBlock `hcl:"sampling,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// VariableBlock is a `variable "<name>" { ... }` block.
type VariableBlock struct {
	Name    string   `hcl:"name,label"`
	Values  []string `hcl:"values"`
	Parents []string `hcl:"parents,optional"`
	// Cpt is either a flat list of numbers or a list of such lists; the
	// shape is resolved during translation.
	Cpt       hcl.Expression `hcl:"cpt,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// EvidenceBlock is an `evidence { <variable> = "<value>" }` block.
type EvidenceBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// SamplingBlock holds the sampling defaults of a network file.
type SamplingBlock struct {
	Draws       *int    `hcl:"draws,optional"`
	Workers     *int    `hcl:"workers,optional"`
	SaveSamples *bool   `hcl:"save_samples,optional"`
	Seed        *uint64 `hcl:"seed,optional"`
}
