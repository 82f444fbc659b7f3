// Package cloud implements the salience-to-visibility-tier mapping at the
// heart of tiercloud.
//
// A continuous score range is discretized into ordered tiers, each token is
// quantized to a tier, and a set of width-threshold rules is generated such
// that a width-reactive rendering surface reveals tiers 0..k at width W,
// with k monotonically non-decreasing in W.
//
// The package is pure computation: scanning accumulates a range, Tier maps a
// score to an index, and BuildRules derives thresholds from a width span.
// Markup fragments for individual rows are produced by Fragment. Document
// assembly lives in the sink subpackage.
package cloud
