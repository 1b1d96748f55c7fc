package store

import "go.uber.org/zap"

// Notices receives the user-visible outcome of every write: a distinct
// confirmation for each successful action and a distinct failure notice for
// each failed one. The UI layer owns presentation; this module only raises.
type Notices interface {
	Success(action, message string)
	Failure(action, message string)
}

type logNotices struct {
	logger *zap.Logger
}

// NewLogNotices returns a Notices sink that records outcomes as log lines.
func NewLogNotices(logger *zap.Logger) Notices {
	return &logNotices{logger: logger}
}

func (n *logNotices) Success(action, message string) {
	n.logger.Info("notice", zap.String("action", action), zap.String("message", message))
}

func (n *logNotices) Failure(action, message string) {
	n.logger.Warn("notice", zap.String("action", action), zap.String("message", message))
}
