// Package model defines core types used throughout lloyd.
//
// # Data Types
//
//   - Point: a 2-D coordinate with its current cluster assignment
//   - Centroid: the mean position of a cluster
//   - Range: a half-open [Start, End) partition of the point sequence
//
// # Building Inputs
//
// Datasets are plain slices. Use FromPairs to convert raw coordinate pairs:
//
//	points := model.FromPairs([][2]float64{{0, 0}, {1, 0}, {10, 10}})
package model
