package scope

// Variable is a named binding held by a Table. Variables are created only by
// table operations (Add, Put, ResolveOrCreate, Clone, Fork), never standalone.
type Variable[T any] struct {
	name       string
	value      T
	visibility Visibility
	locked     bool
	owner      *Table[T]
}

// Name returns the identifier the variable was bound under.
func (v *Variable[T]) Name() string {
	return v.name
}

// Value returns the current value of the binding.
func (v *Variable[T]) Value() T {
	return v.value
}

// SetValue assigns a new value, failing once the variable has been locked.
func (v *Variable[T]) SetValue(value T) error {
	if v.locked {
		return &ImmutableVariableError{Name: v.name}
	}
	v.value = value
	return nil
}

// Visibility returns the export classification of the variable.
func (v *Variable[T]) Visibility() Visibility {
	return v.visibility
}

// SetVisibility reclassifies the variable. Visibility is independent of lock state.
func (v *Variable[T]) SetVisibility(vis Visibility) {
	v.visibility = vis
}

// Lock makes all further value assignment fail. There is no unlock.
func (v *Variable[T]) Lock() {
	v.locked = true
}

// Locked reports whether the variable rejects assignment.
func (v *Variable[T]) Locked() bool {
	return v.locked
}

// Owner returns the table that created the variable. The link exists for
// diagnostics only and plays no part in resolution.
func (v *Variable[T]) Owner() *Table[T] {
	return v.owner
}
