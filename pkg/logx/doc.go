// Package logx configures announcer's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional ops sink (warn+ records forwarded to an operator chat, rate limited)
package logx
