// Package conversation provides command parsing and user notification
// implementations for the terminal front ends.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches user input to commands using keywords and simple
// patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex   *regexp.Regexp
	command domain.CommandType
	payload bool // capture group 1 is the payload
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regex: regexp.MustCompile(`(?i)^(start|go|brew|begin|resume|continue|s)$`), command: domain.CommandStart},
		{regex: regexp.MustCompile(`(?i)^(pause|hold|wait|p)$`), command: domain.CommandPause},
		{regex: regexp.MustCompile(`(?i)^(reset|restart|stop|r)$`), command: domain.CommandReset},
		{regex: regexp.MustCompile(`(?i)^(skip|finish|done|k)$`), command: domain.CommandSkip},
		{regex: regexp.MustCompile(`(?i)^(status|where|progress|info|\.)$`), command: domain.CommandStatus},
		{regex: regexp.MustCompile(`(?i)^(stages|timeline|plan|t)$`), command: domain.CommandStages},
		{regex: regexp.MustCompile(`(?i)^(export|legacy|x)$`), command: domain.CommandExport},
		{regex: regexp.MustCompile(`(?i)^(history|sessions|log)$`), command: domain.CommandHistory},
		{regex: regexp.MustCompile(`(?i)^(list|recipes|ls|l)$`), command: domain.CommandList},
		{regex: regexp.MustCompile(`(?i)^(?:list|recipes|ls|search|find)\s+(.+)$`), command: domain.CommandList, payload: true},
		{regex: regexp.MustCompile(`(?i)^(?:sound|audio|mute)(?:\s+(on|off))?$`), command: domain.CommandSound, payload: true},
		{regex: regexp.MustCompile(`(?i)^(?:select|pick|use|load)\s+(.+)$`), command: domain.CommandSelect, payload: true},
		{regex: regexp.MustCompile(`(?i)^(help|h|\?)$`), command: domain.CommandHelp},
		{regex: regexp.MustCompile(`(?i)^(quit|exit|q|bye)$`), command: domain.CommandQuit},
	}
	return p
}

// Parse converts user input into a command. Unrecognised input gives
// CommandUnknown with the input as payload, never an error.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Command{Type: domain.CommandUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// Recipe selection by list number (e.g. "1", "2", "12").
	if len(trimmed) <= 2 && isDigits(trimmed) {
		return &domain.Command{Type: domain.CommandSelect, Payload: trimmed}, nil
	}

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched command: %s", rule.command)
		cmd := &domain.Command{Type: rule.command}
		if rule.payload && len(m) > 1 {
			cmd.Payload = strings.TrimSpace(m[1])
		}
		if rule.command == domain.CommandSound {
			cmd.Payload = soundPayload(trimmed, cmd.Payload)
		}
		return cmd, nil
	}

	p.log.Debug("no match, returning unknown command")
	return &domain.Command{Type: domain.CommandUnknown, Payload: trimmed}, nil
}

// soundPayload normalises the sound toggle: an explicit on/off wins, bare
// "mute" means off, and anything else toggles (empty payload).
func soundPayload(input, arg string) string {
	arg = strings.ToLower(arg)
	if arg != "" {
		return arg
	}
	if strings.EqualFold(input, "mute") {
		return "off"
	}
	return ""
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
