package pane

// Stack holds the surface currently shown in the builder region. It never
// owns the surfaces it shows: builder surfaces belong to their registry entry
// and only the placeholder is created here.
//
// Stack is not safe for concurrent use; it is driven from the UI goroutine.
type Stack struct {
	placeholder *Surface
	visible     *Surface
}

// NewStack creates a stack showing an empty placeholder surface.
func NewStack(rows, cols int) *Stack {
	p := NewSurface(rows, cols)
	return &Stack{
		placeholder: p,
		visible:     p,
	}
}

// Show makes s the visible surface. A nil surface shows the placeholder.
func (st *Stack) Show(s *Surface) {
	if s == nil {
		s = st.placeholder
	}
	st.visible = s
}

// ShowPlaceholder shows the empty placeholder surface.
func (st *Stack) ShowPlaceholder() {
	st.visible = st.placeholder
}

// Visible returns the surface currently shown.
func (st *Stack) Visible() *Surface {
	return st.visible
}

// Placeholder returns the empty surface shown when no builder exists.
func (st *Stack) Placeholder() *Surface {
	return st.placeholder
}

// IsPlaceholder reports whether the placeholder is showing.
func (st *Stack) IsPlaceholder() bool {
	return st.visible == st.placeholder
}

// Resize resizes the placeholder surface.
func (st *Stack) Resize(rows, cols int) {
	st.placeholder.Resize(rows, cols)
}
