package scope

import "fmt"

// DuplicateSymbolError reports an Add of a name already bound in the same table.
type DuplicateSymbolError struct {
	Name string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("scope: symbol %q already defined in this scope", e.Name)
}

// ImmutableVariableError reports an assignment to a locked variable.
type ImmutableVariableError struct {
	Name string
}

func (e *ImmutableVariableError) Error() string {
	return fmt.Sprintf("scope: variable %q is locked and cannot be assigned", e.Name)
}
