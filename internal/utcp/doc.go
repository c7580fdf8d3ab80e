// Package utcp implements the UTCP backend: a client whose capabilities come
// from a declarative manual document instead of a server process.
//
// A manual lists tools and, per tool, a call template describing how to
// execute it: an HTTP request or a command line. Templates may reference
// ${NAME} variables resolved from the manual's variables map first and the
// process environment second; substitution is all-or-nothing and
// non-recursive. Manuals are written in JSON (comments tolerated) or YAML
// and validated strictly at load time, so a client that constructs at all
// has a well-formed manual.
//
// The backend executes tool calls in-process with no background goroutines.
// Prompts and resources are not part of the manual format, so those
// operations fail with protocol.ErrUnsupported.
package utcp
