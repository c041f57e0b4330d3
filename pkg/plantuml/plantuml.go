// Package plantuml renders a machine as a PlantUML state diagram.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	"github.com/stateforward/go-asm"
	"github.com/stateforward/go-asm/pkg/set"
)

const (
	currentColor = "#LightBlue"
	dangling     = "<<dangling>>"
)

func idFromName(name string) string {
	if name == "" {
		return "_"
	}
	return strings.NewReplacer("-", "_", "/", ".", " ", "_").Replace(name)
}

func generateState(builder *strings.Builder, name string, tags ...string) {
	id := idFromName(name)
	declaration := id
	if id != name {
		declaration = fmt.Sprintf("%q as %s", name, id)
	}
	for _, tag := range tags {
		if tag != "" {
			declaration += " " + tag
		}
	}
	fmt.Fprintf(builder, "  state %s\n", declaration)
}

func generateTransition(builder *strings.Builder, transition *asm.Transition) {
	fmt.Fprintf(builder, "%s --> %s : %s / %s\n",
		idFromName(transition.Source()),
		idFromName(transition.Target()),
		transition.BeforeEvent(),
		transition.AfterEvent(),
	)
}

// Generate writes the states and transitions of machine. Transitions are labelled with their
// before and after events, the current state is highlighted and targets that name no state are
// marked dangling.
func Generate(writer io.Writer, machine *asm.Machine) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "@startuml %s\n", idFromName(machine.ID()))
	declared := set.New[string]()
	for _, state := range machine.AllStates() {
		if declared.Add(state.Name()) == 0 {
			continue
		}
		color := ""
		if machine.Is(state.Name()) {
			color = currentColor
		}
		generateState(&builder, state.Name(), color)
	}
	transitions := machine.AllTransitions()
	for _, transition := range transitions {
		if declared.Add(transition.Target()) > 0 {
			generateState(&builder, transition.Target(), dangling)
		}
	}
	fmt.Fprintf(&builder, "[*] --> %s\n", idFromName(machine.Config().State))
	for _, transition := range transitions {
		generateTransition(&builder, transition)
	}
	fmt.Fprintln(&builder, "@enduml")
	_, err := io.WriteString(writer, builder.String())
	return err
}
