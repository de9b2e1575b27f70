// Package plantuml renders a machine's registered states and transitions as a
// PlantUML state diagram. It reads only the bsm.Inspector surface: state
// identifiers, current/previous markers, and per-transition metadata
// (priority, fire counter, descriptions), and never mutates the machine.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	bsm "github.com/statecraft/go-bsm"
	"github.com/statecraft/go-bsm/pkg/set"
)

func id(stateID string) string {
	return strings.ReplaceAll(strings.ReplaceAll(stateID, "-", "_"), " ", "_")
}

func label(info bsm.TransitionInfo) string {
	var parts []string
	if info.GuardDescription != "" {
		parts = append(parts, "["+info.GuardDescription+"]")
	}
	if info.ActionDescription != "" {
		parts = append(parts, "/ "+info.ActionDescription)
	}
	parts = append(parts, fmt.Sprintf("(p%d, fired %d)", info.Priority, info.Fired))
	return strings.Join(parts, " ")
}

// Generate writes a PlantUML state diagram of machine to w. The current state
// is tagged <<current>> and the previous state <<previous>>.
func Generate(w io.Writer, machine bsm.Inspector) error {
	builder := &strings.Builder{}
	builder.WriteString("@startuml\n")
	declared := set.New[string]()
	for _, stateID := range machine.StateIDs() {
		if declared.Has(stateID) {
			continue
		}
		declared.Add(stateID)
		tag := ""
		switch stateID {
		case machine.CurrentID():
			tag = " <<current>>"
		case machine.PreviousID():
			tag = " <<previous>>"
		}
		fmt.Fprintf(builder, "state %s%s\n", id(stateID), tag)
	}
	if current := machine.CurrentID(); current != "" {
		fmt.Fprintf(builder, "[*] --> %s\n", id(current))
	}
	for _, stateID := range machine.StateIDs() {
		for _, info := range machine.TransitionInfo(stateID) {
			fmt.Fprintf(builder, "%s --> %s : %s\n", id(info.From), id(info.To), label(info))
		}
	}
	builder.WriteString("@enduml\n")
	_, err := io.WriteString(w, builder.String())
	return err
}
