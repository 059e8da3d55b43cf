package execution

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Decision is the outcome of an execution confirmation
type Decision string

const (
	DecisionExecute Decision = "execute"
	DecisionSkip    Decision = "skip"
)

// Confirmer asks whether calculated orders should be sent to the broker
type Confirmer interface {
	Confirm(ctx context.Context, label string, orders []contracts.Order) (Decision, error)
}

// AutoConfirmer always executes (--yes, scheduler)
type AutoConfirmer struct{}

// Confirm returns DecisionExecute
func (AutoConfirmer) Confirm(_ context.Context, _ string, _ []contracts.Order) (Decision, error) {
	return DecisionExecute, nil
}

// PromptConfirmer prints the orders and waits for a line on in
// 빈 줄(Enter) = 실행, "skip" = 건너뜀
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer creates a prompt over in/out
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm blocks until a line is read or ctx is cancelled
func (p *PromptConfirmer) Confirm(ctx context.Context, label string, orders []contracts.Order) (Decision, error) {
	fmt.Fprintf(p.out, "\n=== %s: %d orders ===\n", label, len(orders))
	for _, o := range orders {
		fmt.Fprintf(p.out, "  %-10s %-6s %6d\n", o.Action, o.Ticker, o.Quantity)
	}
	fmt.Fprint(p.out, "Press Enter to execute, or type 'skip' to continue without trading: ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", contracts.ErrAborted, ctx.Err())
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return "", fmt.Errorf("read confirmation: %w", a.err)
		}
		if a.err == io.EOF && a.line == "" {
			return "", fmt.Errorf("%w: input closed", contracts.ErrAborted)
		}
		if strings.EqualFold(strings.TrimSpace(a.line), "skip") {
			return DecisionSkip, nil
		}
		return DecisionExecute, nil
	}
}
