package notifier

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// StartPolling reads commands from in, one per line, and writes replies to the
// console. Blank lines are ignored. Blocks until ctx is cancelled or in is
// exhausted.
func (c *Console) StartPolling(ctx context.Context, in io.Reader, handler CommandHandler) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("[WARN] read commands: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] command polling stopped")
			return
		case line, ok := <-lines:
			if !ok {
				log.Println("[INFO] command input closed")
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			log.Printf("[INFO] received command: %q", text)
			reply := handler(text)
			if reply != "" {
				if err := c.Send(reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}
