/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package ops classifies the CLI's commands so help output can list them by group.
package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupDocs    CommandGroup = "docs"    // repair, validate, scaffold
	GroupSupport CommandGroup = "support" // version and other helpers
)

// CoreCommands must be registered under the listed group in every build
var CoreCommands = map[string]CommandGroup{
	"repair":   GroupDocs,
	"validate": GroupDocs,
	"scaffold": GroupDocs,
	"version":  GroupSupport,
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Register adds a command to the registry
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: description,
	}
	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)
	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands in a group in registration order
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*CommandRegistration(nil), r.groupIndex[group]...)
}

// CheckCore lists every core command that is missing or registered under the wrong group
func (r *Registry) CheckCore() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(CoreCommands))
	for name := range CoreCommands {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []error
	for _, name := range names {
		want := CoreCommands[name]
		reg, ok := r.commands[name]
		switch {
		case !ok:
			problems = append(problems, fmt.Errorf("core command %s is not registered", name))
		case reg.Group != want:
			problems = append(problems, fmt.Errorf("core command %s registered as %s, expected %s", name, reg.Group, want))
		}
	}
	return problems
}
