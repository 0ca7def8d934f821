package crossing

// Direction is classification of a line crossing
type Direction uint8

const (
	// DirectionNone means no crossing has been classified
	DirectionNone Direction = iota
	// DirectionEntry is downward crossing: from above the line to below it
	DirectionEntry
	// DirectionExit is upward crossing: from below the line to above it
	DirectionExit
)

func (d Direction) String() string {
	switch d {
	case DirectionEntry:
		return "entry"
	case DirectionExit:
		return "exit"
	default:
		return "none"
	}
}
