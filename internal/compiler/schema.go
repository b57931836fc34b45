package compiler

import (
	_ "embed"

	"cuelang.org/go/cue"
)

//go:embed schema.cue
var schemaSource string

// applySchema unifies v with the definition schema and checks that every
// definition under op is concrete.
func applySchema(v cue.Value) error {
	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return formatCUEError(err)
	}
	u := schema.Unify(v)
	return formatCUEError(u.LookupPath(cue.ParsePath("op")).Validate(cue.Concrete(true)))
}
