// Package templates supplies the reference rendering of a character that a
// student's writing is scored against.
//
// Templates come from a chain of sources, tried in order:
//
//  1. Prebaked: <dir>/<char>.png, normalized to white ink on black.
//  2. Rendered: <dir>/rendered/<char>.png, used as stored.
//  3. Font: the character drawn from a TrueType font (the first *.ttf in
//     the template directory unless a font path is configured).
//
// A missing template is not an error; callers get ok == false and report the
// character as unscored.
//
// Provider memoizes templates and their measured features per (character,
// size) in a Cache that is safe for concurrent use. An optional FeatureStore
// (Redis) shares template features between processes.
package templates
