// Package bootstrap describes the commands an instance runs once on first
// boot as an ordered list of named steps.
package bootstrap

import (
	"fmt"
	"strings"
)

const (
	defaultShebang   = "#!/bin/bash"
	heredocDelimiter = "EOF"
)

// Step is a named group of shell commands executed in order.
type Step struct {
	Name     string
	Commands []string
}

// Script is the user data of an instance.
type Script struct {
	Shebang string
	Steps   []Step
}

// ForLinux returns an empty script for a Linux instance.
func ForLinux() *Script {
	return &Script{Shebang: defaultShebang}
}

// Add appends steps to the script.
func (s *Script) Add(steps ...Step) *Script {
	s.Steps = append(s.Steps, steps...)
	return s
}

// Step returns the step with the given name.
func (s *Script) Step(name string) (Step, bool) {
	for _, step := range s.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return Step{}, false
}

// StepNames returns the names of all steps in execution order.
func (s *Script) StepNames() []string {
	names := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		names = append(names, step.Name)
	}
	return names
}

// Lines returns the shebang followed by every command of every step.
func (s *Script) Lines() []string {
	lines := make([]string, 0, len(s.Steps)+1)
	if s.Shebang != "" {
		lines = append(lines, s.Shebang)
	}
	for _, step := range s.Steps {
		lines = append(lines, step.Commands...)
	}
	return lines
}

// String renders the script as it is passed to the instance.
func (s *Script) String() string {
	return strings.Join(s.Lines(), "\n")
}

// InstallPackages installs packages with yum.
func InstallPackages(name string, packages ...string) Step {
	return Step{
		Name:     name,
		Commands: []string{"yum install -y " + strings.Join(packages, " ")},
	}
}

// PipeToShell downloads a setup script and runs it as root.
func PipeToShell(name, url string) Step {
	return Step{
		Name:     name,
		Commands: []string{fmt.Sprintf("curl --silent --location %s | sudo bash -", url)},
	}
}

// WriteFile writes content verbatim to path. The heredoc delimiter is quoted
// so the shell does not expand anything inside content.
func WriteFile(name, path, content string) Step {
	return Step{
		Name: name,
		Commands: []string{
			fmt.Sprintf("cat > %s <<'%s'\n%s\n%s", path, heredocDelimiter, strings.TrimRight(content, "\n"), heredocDelimiter),
		},
	}
}

// Background starts command as a background process.
func Background(name, command string) Step {
	return Step{
		Name:     name,
		Commands: []string{command + " &"},
	}
}
