// Package csync provides small thread-safe collections.
//
// Example usage:
//
//	sessions := csync.NewMap[string, *session.Controller]()
//	sessions.Set(ctrl.ID(), ctrl)
//	if ctrl, ok := sessions.Take(id); ok {
//		ctrl.Close()
//	}
package csync
