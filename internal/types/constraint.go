package types

// Constraint is a single version bound on a named package. Source keeps
// the raw requirement it was parsed from for error messages.
type Constraint struct {
	Name    string
	Op      ConstraintOp
	Version string
	Source  string
}
