// Package nlsql compiles plain-English questions about the shop database
// into SQL and explains query results back in plain English.
//
// The compiler is a fixed pipeline of deterministic stages:
//
//	normalize -> classify action -> resolve entities -> extract conditions
//	-> resolve grouping, ordering and limit -> plan joins -> assemble SQL
//
// Each stage is an ordered list of keyword or pattern rules evaluated
// top to bottom, first match wins. The output is a single SELECT statement
// for SQLite, terminated with a semicolon. Conditions are flat and combined
// with AND.
//
// Executing the SQL is not part of this package: callers pass an Executor to
// Compiler.Answer, and execution failures come back as a result row rather
// than a Go error. An optional Generator (a learned text-to-SQL model) may be
// plugged in as an alternate SQL source; the rule-based compiler is always
// the fallback.
//
// A Compiler holds no mutable state and is safe for concurrent use.
package nlsql
