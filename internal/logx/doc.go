// Package logx configures the relay's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps console
// output readable (short timestamp + short caller) and lets call sites attach
// fields with helpers such as Int, Uint64, String and Err.
package logx
