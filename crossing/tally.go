package crossing

// Tally holds totals of classified crossings
type Tally struct {
	Entries int `json:"total_entries"`
	Exits   int `json:"total_exits"`
}

// Net returns entries minus exits
func (t Tally) Net() int {
	return t.Entries - t.Exits
}
