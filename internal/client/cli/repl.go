package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// command is one REPL verb. auth commands need a session; a non-empty roles
// list restricts the command to those active roles.
type command struct {
	name  string
	usage string
	auth  bool
	roles []models.Role
	run   func(ctx context.Context, args []string) error
}

func (c *command) allows(role models.Role) bool {
	if len(c.roles) == 0 {
		return true
	}
	return slices.ContainsFunc(c.roles, role.Is)
}

// execIface is the minimal surface the REPL needs. The real App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	activeRole() models.Role
	lookup(name string) (*command, bool)
	commandList() []*command
}

// runREPL reads commands from in until EOF or "exit"/"quit".
//
// The first token of a line is the command, the rest are its arguments.
// Commands needing a session are refused while anonymous and role-gated
// commands are refused for other roles, the way a browser would not route
// to a page the role cannot see. Handlers report their own errors; the
// returned error is ignored here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("miarbol %s> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "exit", "quit":
			printlnFn("¡Hasta luego!")
			return
		case "help":
			printHelp(a)
			continue
		}

		cmd, ok := a.lookup(name)
		if !ok {
			printlnFn("Comando desconocido:", name)
			continue
		}
		if cmd.auth && !a.isLoggedIn() {
			printlnFn("Inicia sesión primero (login)")
			continue
		}
		if cmd.auth && !cmd.allows(a.activeRole()) {
			printlnFn(fmt.Sprintf("El comando %s no está disponible para el rol %s", name, a.activeRole()))
			continue
		}

		_ = cmd.run(ctx, args)

		if ctx.Err() != nil {
			return
		}
	}
}

func printHelp(a execIface) {
	loggedIn := a.isLoggedIn()

	var b strings.Builder
	b.WriteString("Comandos disponibles:\n")
	for _, c := range a.commandList() {
		if c.auth && (!loggedIn || !c.allows(a.activeRole())) {
			continue
		}
		fmt.Fprintf(&b, "  %-28s\n", c.usage)
	}
	b.WriteString("  exit | quit")
	printlnFn(b.String())
}
