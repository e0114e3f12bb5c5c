package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input       string
		wantType    domain.CommandType
		wantPayload string
	}{
		// Start / resume
		{"start", domain.CommandStart, ""},
		{"GO", domain.CommandStart, ""},
		{"resume", domain.CommandStart, ""},
		{"s", domain.CommandStart, ""},

		// Pause
		{"pause", domain.CommandPause, ""},
		{"p", domain.CommandPause, ""},

		// Reset
		{"reset", domain.CommandReset, ""},
		{"stop", domain.CommandReset, ""},

		// Skip
		{"skip", domain.CommandSkip, ""},
		{"done", domain.CommandSkip, ""},

		// Info
		{"status", domain.CommandStatus, ""},
		{".", domain.CommandStatus, ""},
		{"stages", domain.CommandStages, ""},
		{"export", domain.CommandExport, ""},
		{"history", domain.CommandHistory, ""},

		// Recipes
		{"list", domain.CommandList, ""},
		{"search v60", domain.CommandList, "v60"},
		{"ls  espresso ", domain.CommandList, "espresso"},
		{"select kalita-wave", domain.CommandSelect, "kalita-wave"},
		{"use Iced V60", domain.CommandSelect, "Iced V60"},
		{"2", domain.CommandSelect, "2"},
		{"12", domain.CommandSelect, "12"},

		// Sound
		{"sound", domain.CommandSound, ""},
		{"sound off", domain.CommandSound, "off"},
		{"Sound ON", domain.CommandSound, "on"},
		{"mute", domain.CommandSound, "off"},

		// Meta
		{"help", domain.CommandHelp, ""},
		{"?", domain.CommandHelp, ""},
		{"quit", domain.CommandQuit, ""},
		{"q", domain.CommandQuit, ""},

		// Unknown
		{"", domain.CommandUnknown, ""},
		{"   ", domain.CommandUnknown, ""},
		{"123", domain.CommandUnknown, "123"},
		{"make me a latte", domain.CommandUnknown, "make me a latte"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			cmd, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Type != tt.wantType {
				t.Fatalf("input %q: expected %s, got %s", tt.input, tt.wantType, cmd.Type)
			}
			if cmd.Payload != tt.wantPayload {
				t.Fatalf("input %q: expected payload %q, got %q", tt.input, tt.wantPayload, cmd.Payload)
			}
		})
	}
}

func TestCLINotifier(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	n := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, a...))
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = n.Notify(ctx, fmt.Sprintf("message %d", i))
			} else {
				_ = n.NotifyUrgent(ctx, fmt.Sprintf("message %d", i))
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if !strings.Contains(l, "message ") {
			t.Fatalf("line lost its text: %q", l)
		}
	}
}
