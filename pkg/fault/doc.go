// Package fault is the diagnostic knowledge base.
//
// Every fault an analyzer can raise is a Kind. The static table in kinds.go
// holds the display name, description, corrective action, standard reference
// and default severity for each Kind. An occurrence is a Fault value built
// with New: it copies the table entry and adds the measured value and the
// trigger string quoting the numbers that fired the rule. Fault values are
// never modified after construction; With* methods return copies.
package fault
