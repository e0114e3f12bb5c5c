package conversation

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

var (
	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...any)

// CLINotifier prints notifications one per line. Safe for concurrent use;
// timer events arrive from the tick goroutine while the prompt runs on
// main.
type CLINotifier struct {
	log     *logger.Logger
	mu      sync.Mutex
	printFn PrintFunc
}

// NewCLINotifier creates a terminal notifier. If printFn is nil, lines go
// to stdout.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Fprintf(os.Stdout, format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.print(normalStyle.Render(message))
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.print(urgentStyle.Render(message))
	return nil
}

func (n *CLINotifier) print(line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.printFn("%s", line)
}
