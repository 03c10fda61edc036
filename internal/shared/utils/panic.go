package utils

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// PanicError converts a recovered value into an error and logs it with a
// stack trace. It returns nil when nothing was recovered.
//
//	defer func() {
//	    if err := utils.PanicError(log, "listener "+name, recover()); err != nil {
//	        ...
//	    }
//	}()
func PanicError(log *zap.Logger, where string, recovered any) error {
	if recovered == nil {
		return nil
	}
	if log != nil {
		log.Error("panic recovered",
			zap.String("in", where),
			zap.Any("value", recovered),
			zap.ByteString("stack", debug.Stack()))
	}
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("panic in %s: %w", where, err)
	}
	return fmt.Errorf("panic in %s: %v", where, recovered)
}
