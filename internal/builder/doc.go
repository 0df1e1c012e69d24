/*
Package builder turns a format-agnostic config.Model into a ready-to-sample
*bayes.Graph.

The construction is a multi-pass process:

 1. Node Creation: one bayes.Node per variable, in declaration order, so the
    order of the files defines the order of CSV columns and reports.

 2. Parent Linking: each variable's `parents` list is resolved by name and
    turned into parent edges. Unknown names are rejected here rather than at
    sampling time.

 3. Validation: the graph's acyclicity guard runs before any table is
    assigned, so a cyclic network fails with bayes.ErrCycle.

 4. Table Assignment: explicit CPT rows are normalized and stored; variables
    without rows receive random tables.

 5. Evidence: the model's observations are applied last.
*/
package builder
