package logger

// NoOp is a logger that discards everything. Used in tests and as a safe
// default before configuration is loaded.
type NoOp struct{}

// NewNoOp creates a new no-op logger.
func NewNoOp() Interface { return &NoOp{} }

// Debug does nothing.
func (n *NoOp) Debug(_ string, _ ...any) {}

// Info does nothing.
func (n *NoOp) Info(_ string, _ ...any) {}

// Warn does nothing.
func (n *NoOp) Warn(_ string, _ ...any) {}

// Error does nothing.
func (n *NoOp) Error(_ string, _ ...any) {}

// Fatal does nothing.
func (n *NoOp) Fatal(_ string, _ ...any) {}

// With returns the same no-op logger.
func (n *NoOp) With(_ ...any) Interface { return n }
