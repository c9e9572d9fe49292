package listing

// ModalState is the state of the single record modal of a screen.
type ModalState string

const (
	ModalIdle             ModalState = "idle"
	ModalCreating         ModalState = "creating"
	ModalViewing          ModalState = "viewing"
	ModalEditing          ModalState = "editing"
	ModalConfirmingDelete ModalState = "confirming_delete"
)

var modalTransitions = map[ModalState][]ModalState{
	ModalIdle:    {ModalCreating, ModalViewing, ModalEditing, ModalConfirmingDelete},
	ModalViewing: {ModalEditing, ModalConfirmingDelete},
	ModalEditing: {ModalViewing},
}

// Valid reports whether s is a known modal state.
func (s ModalState) Valid() bool {
	switch s {
	case ModalIdle, ModalCreating, ModalViewing, ModalEditing, ModalConfirmingDelete:
		return true
	}
	return false
}

// RecordBound reports whether the state needs a selected record.
func (s ModalState) RecordBound() bool {
	return s == ModalViewing || s == ModalEditing || s == ModalConfirmingDelete
}

// CanTransition reports whether the modal may move from one state to another.
// Closing is always allowed.
func CanTransition(from, to ModalState) bool {
	if to == ModalIdle {
		return true
	}
	for _, next := range modalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
