// Package builtin provides the services shipped with svclocd.
//
// Importing the package adds every built-in to bootstrap.Default:
//
//	import _ "github.com/fyrsmithlabs/svclocator/internal/builtin"
//
// Services:
//   - heartbeat (VeryHigh, auto-start): logs a heartbeat every N frames
//   - uptime (High, auto-start): counts frames and pauses while running
//   - snapshot (Low, opt-in): writes registry status as JSON every N frames
package builtin
