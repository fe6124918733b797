package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/emomap/internal/constants"
)

var processesFunc = ps.Processes

// Confirm asks a yes/no question on the terminal. Any form error counts as no.
func Confirm(title, description string) bool {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	return err == nil && ok
}

// OtherInstances returns the pids of other running emomap processes.
func OtherInstances() ([]int, error) {
	procs, err := processesFunc()
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	var pids []int
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(p.Executable()), ".exe")
		if name == constants.AppName {
			pids = append(pids, p.Pid())
		}
	}
	return pids, nil
}
