/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRegistry_BasicRegistration(t *testing.T) {
	registry := NewRegistry()
	testCmd := &cobra.Command{Use: "test", Short: "Test command"}

	if err := registry.Register("test", GroupSupport, testCmd, "A test command"); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	cmd, exists := registry.GetCommand("test")
	if !exists {
		t.Fatal("Expected command to exist after registration")
	}
	if cmd.Group != GroupSupport {
		t.Errorf("Expected command group 'support', got '%s'", cmd.Group)
	}
	if cmd.Command != testCmd {
		t.Error("Expected command object to match registered command")
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	cmd := &cobra.Command{Use: "repair"}
	if err := registry.Register("repair", GroupDocs, cmd, "first"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := registry.Register("repair", GroupDocs, cmd, "second"); err == nil {
		t.Error("Expected error on duplicate registration")
	}
}

func TestRegistry_GetCommandsByGroupKeepsOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"repair", "validate", "scaffold"} {
		if err := registry.Register(name, GroupDocs, &cobra.Command{Use: name}, name); err != nil {
			t.Fatal(err)
		}
	}
	got := registry.GetCommandsByGroup(GroupDocs)
	if len(got) != 3 || got[0].Name != "repair" || got[2].Name != "scaffold" {
		t.Errorf("unexpected group listing: %+v", got)
	}
	if len(registry.GetCommandsByGroup(GroupSupport)) != 0 {
		t.Error("Expected no support commands")
	}
}

func TestRegistry_CheckCore(t *testing.T) {
	registry := NewRegistry()
	if problems := registry.CheckCore(); len(problems) != len(CoreCommands) {
		t.Errorf("Expected %d problems for an empty registry, got %d", len(CoreCommands), len(problems))
	}

	for name, group := range CoreCommands {
		if name == "version" {
			group = GroupDocs
		}
		if err := registry.Register(name, group, &cobra.Command{Use: name}, name); err != nil {
			t.Fatal(err)
		}
	}
	problems := registry.CheckCore()
	if len(problems) != 1 {
		t.Fatalf("Expected one misclassification, got %v", problems)
	}
	if got := problems[0].Error(); got != "core command version registered as docs, expected support" {
		t.Errorf("unexpected problem: %s", got)
	}
}
