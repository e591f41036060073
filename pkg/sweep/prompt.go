package sweep

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirm asks question on w and reads one answer line from r. Only "y" or
// "yes" (any case) confirm. End of input, a read error or cancellation of
// ctx count as "no".
//
// The read runs in its own goroutine. On cancellation r is closed when it
// is an io.Closer, which releases that goroutine; otherwise it stays blocked
// until r returns.
func Confirm(ctx context.Context, r io.Reader, w io.Writer, question string) bool {
	if r == nil {
		return false
	}
	if w != nil {
		fmt.Fprintf(w, "%s [y/N]: ", question)
	}

	answer := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			close(answer)
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		if w != nil {
			fmt.Fprintln(w)
		}
		return false
	case line, ok := <-answer:
		if !ok {
			if w != nil {
				fmt.Fprintln(w)
			}
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
