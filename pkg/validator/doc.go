// Package validator implements the multi-pass rule engine that checks
// account security-group documents against schema, guardrails, naming
// conventions, and cross-file references.
//
// Each pass appends typed findings with stable rule identifiers to a
// shared summary; passes never abort each other, so authors see every
// problem in one run.
package validator
