// Package feedback turns a score into comments a student can act on.
//
// Each scored dimension yields either a single "good" item or the specific
// deviations that exceed their dead-bands, each paired with a practice
// suggestion. Format renders the result as plain text.
package feedback
