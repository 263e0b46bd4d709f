package core

import "errors"

// CommandHandler runs one text command. args excludes the command name.
type CommandHandler func(args []string) error

// Command is one text command understood by the dispatcher
type Command struct {
	Name    string
	Usage   string // e.g. "set <id> <pos>"
	Help    string
	Handler CommandHandler
}

// CommandRegistry holds the text commands in registration order
type CommandRegistry struct {
	commands map[string]*Command
	names    []string
}

// errUsage asks the dispatcher to reply with the command's usage line
var errUsage = errors.New("usage")

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]*Command)}
}

// Register adds a command. Registering a name twice replaces the handler
// and keeps the original position in Names.
func (r *CommandRegistry) Register(cmd Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.names = append(r.names, cmd.Name)
	}
	c := cmd
	r.commands[cmd.Name] = &c
}

// Lookup finds a command by name
func (r *CommandRegistry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns command names in registration order
func (r *CommandRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	return len(r.names)
}
