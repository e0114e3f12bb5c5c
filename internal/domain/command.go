package domain

// CommandType classifies what the user wants the brew timer to do.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandList
	CommandSelect
	CommandStart
	CommandPause
	CommandReset
	CommandSkip
	CommandStatus
	CommandStages
	CommandExport
	CommandSound
	CommandHistory
	CommandHelp
	CommandQuit
)

// String returns a human-readable command type.
func (c CommandType) String() string {
	switch c {
	case CommandList:
		return "list"
	case CommandSelect:
		return "select"
	case CommandStart:
		return "start"
	case CommandPause:
		return "pause"
	case CommandReset:
		return "reset"
	case CommandSkip:
		return "skip"
	case CommandStatus:
		return "status"
	case CommandStages:
		return "stages"
	case CommandExport:
		return "export"
	case CommandSound:
		return "sound"
	case CommandHistory:
		return "history"
	case CommandHelp:
		return "help"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command represents a parsed user action.
type Command struct {
	Type    CommandType
	Payload string // optional argument, e.g. recipe ID or "on"/"off"
}
