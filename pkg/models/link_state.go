package models

// LinkState is the resolved link state of a template exercise: either Linked or Unlinked
type LinkState interface {
	isLinkState()
}

// Linked means the exercise is linked to a master exercise
type Linked struct {
	MasterID   string
	MasterName string
}

// Unlinked means the exercise has no link
type Unlinked struct{}

func (Linked) isLinkState()   {}
func (Unlinked) isLinkState() {}

// ResolveLinkStates resolves the link state of each exercise from the links that exist for them
func ResolveLinkStates(entries []TemplateExercise, links []ExerciseLink, masterNames map[string]string) map[string]LinkState {
	byEntry := make(map[string]ExerciseLink, len(links))
	for _, link := range links {
		byEntry[link.TemplateExerciseID] = link
	}

	states := make(map[string]LinkState, len(entries))
	for _, entry := range entries {
		link, ok := byEntry[entry.ID]
		if !ok {
			states[entry.ID] = Unlinked{}
			continue
		}
		states[entry.ID] = Linked{MasterID: link.MasterExerciseID, MasterName: masterNames[link.MasterExerciseID]}
	}
	return states
}
