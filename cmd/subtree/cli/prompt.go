package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// confirm asks the user to confirm a destructive or ambiguous action,
// title describing what will happen. When assumeYes is set (the --yes
// flag) or stdout is not a terminal, confirm returns false immediately
// without prompting: the caller must treat that as "no" and name the flag
// that would have skipped the prompt.
func confirm(title string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false, nil
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return confirmed, nil
}
