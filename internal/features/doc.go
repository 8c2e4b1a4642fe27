// Package features measures the shape of a single handwritten character.
//
// Extract reduces a canonical-size ink mask to a FeatureSet: the ink centre
// of mass, the ink balance between halves, skeleton statistics (length,
// endpoints, junctions, an estimated stroke count) and the distribution of
// stroke directions. All measurements are deterministic functions of the
// mask, and FeatureSets are only comparable when they were measured at the
// same Size.
package features
