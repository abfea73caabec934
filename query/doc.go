// Package query implements the glyph filter language: a three-axis
// boolean AST, its JSON wire format and an evaluator that reduces a
// record set to the visible subset.
//
// A Query has one optional slot per axis. Each slot holds a Node tree of
// NoOp, Include, Exclude, And and Or nodes. A record is visible iff every
// slot passes. Include and Exclude compare the record's axis value with a
// comparison value that is either a literal lifted through the axis's
// vector table or a named statistic of the axis.
//
// Parsing is strict: every failure is a *ParseError naming the offending
// field and carrying the JSON fragment that caused it. Evaluation never
// fails; an unresolvable comparison value simply makes its predicate false.
package query
