package bico

import "context"

// Close releases the summary. Every later call except Stats and Close
// returns ErrClosed. Close is idempotent.
func (e *Engine) Close() error {
	if e == nil || e.closed {
		return nil
	}
	var points uint64
	if e.tree != nil {
		points = e.tree.Stats().Points
	}
	e.closed = true
	e.tree = nil
	e.logger.LogClose(context.Background(), points)
	return nil
}
