// Package point defines the weighted points consumed and produced by the
// coreset engine, and the WeightPolicy that decouples the engine from how a
// point stores its multiplicity.
package point
