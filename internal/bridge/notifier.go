package bridge

import (
	"context"

	"github.com/bnema/streakwatch/internal/dispatch"
)

// ConnNotifier raises notifications through the extension, which owns the
// browser notification API.
type ConnNotifier struct {
	conn *Conn
}

var _ dispatch.Notifier = (*ConnNotifier)(nil)

// NewNotifier creates a notifier bound to conn.
func NewNotifier(conn *Conn) *ConnNotifier {
	return &ConnNotifier{conn: conn}
}

func (n *ConnNotifier) Notify(ctx context.Context, title, message string) error {
	return n.conn.Notify(ctx, title, message)
}
