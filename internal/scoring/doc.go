// Package scoring compares a student's character against its template.
//
// Three dimensions are scored on a 0-100 scale: centre of mass placement,
// stroke accuracy (skeleton length and direction histogram) and structure
// (ink balance between halves). The weighted total is mapped to a grade
// band. Every formula has a neutral fallback for degenerate input, so
// scoring never fails.
package scoring
