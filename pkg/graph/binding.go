package graph

// Binding is a declared module input: either a literal value, a
// reference to an upstream module's output, or a format template over
// other bindings.
type Binding struct {
	// Module and Output identify an upstream output when set.
	Module string
	Output string

	// Value is the literal when Module is empty.
	Value interface{}

	// Format, when set, renders a string from Args with fmt.Sprintf.
	Format string
	Args   []Binding
}

// Lit returns a literal binding.
func Lit(v interface{}) Binding {
	return Binding{Value: v}
}

// Ref returns a binding that resolves to an upstream module output.
func Ref(module, output string) Binding {
	return Binding{Module: module, Output: output}
}

// Fmt returns a binding that renders format with the resolved args.
func Fmt(format string, args ...Binding) Binding {
	return Binding{Format: format, Args: args}
}

// IsRef reports whether the binding references an upstream output.
func (b Binding) IsRef() bool {
	return b.Module != ""
}

// Refs returns every module reference inside the binding, including
// format args.
func (b Binding) Refs() []Binding {
	if b.IsRef() {
		return []Binding{b}
	}
	var refs []Binding
	for _, arg := range b.Args {
		refs = append(refs, arg.Refs()...)
	}
	return refs
}
