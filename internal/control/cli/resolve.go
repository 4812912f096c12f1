package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/scenario"
	"github.com/ja-he/editgate/internal/selection"
)

// ResolveCommand is the `resolve` command.
type ResolveCommand struct {
	Mode        string `short:"m" long:"mode" choice:"edit" choice:"preview" default:"edit" description:"Editor mode"`
	TextEditing bool   `long:"text-editing" description:"Inline text editing is active"`
	TextTarget  string `long:"text-target" value-name:"<container.field>" description:"Field being edited"`
	Element     string `long:"element" value-name:"<container.field:kind>" description:"Selected element"`
	Container   string `long:"container" value-name:"<id>" description:"Selected container"`
	Flags       bool   `long:"flags" description:"Also list the toolbars the raw selection could show"`
}

// Execute executes the resolve command.
func (command *ResolveCommand) Execute(args []string) error {
	return command.Run(os.Stdout)
}

// Run resolves the selection given by the flags and writes the active
// surface, its target and any conflicting inputs to out.
func (command *ResolveCommand) Run(out io.Writer) error {
	snap, err := scenario.SelectionDef{
		Mode:        command.Mode,
		TextEditing: command.TextEditing,
		TextTarget:  command.TextTarget,
		Element:     command.Element,
		Container:   command.Container,
	}.Snapshot()
	if err != nil {
		return fmt.Errorf("invalid selection (%w)", err)
	}

	resolver := selection.Resolver{Logger: &log.Logger}
	target := resolver.TargetOf(snap)

	fmt.Fprintf(out, "surface:   %s\n", target.Surface)
	if target.Surface != selection.SurfaceNone {
		fmt.Fprintf(out, "target:    %s\n", target.TargetID)
		fmt.Fprintf(out, "container: %s\n", target.ContainerID)
		if target.FieldKey != "" {
			fmt.Fprintf(out, "field:     %s\n", target.FieldKey)
		}
	}
	for _, conflict := range selection.Conflicts(snap) {
		fmt.Fprintf(out, "conflict:  %s\n", conflict)
	}
	if command.Flags {
		fmt.Fprintf(out, "can-show:  %s\n", canShow(selection.FlagsOf(snap)))
	}
	return nil
}

func canShow(flags selection.Flags) string {
	var surfaces []string
	if flags.CanShowText {
		surfaces = append(surfaces, string(selection.SurfaceText))
	}
	if flags.CanShowElement {
		surfaces = append(surfaces, string(selection.SurfaceElement))
	}
	if flags.CanShowSection {
		surfaces = append(surfaces, string(selection.SurfaceSection))
	}
	if len(surfaces) == 0 {
		return "-"
	}
	return strings.Join(surfaces, " ")
}
