// Package kmeans implements the Lloyd's-algorithm building blocks shared by every
// execution strategy.
//
// Assignment uses Euclidean distance with ties broken towards the lowest centroid
// index. Centroid recomputation keeps a centroid in place when no point is
// assigned to it.
package kmeans
