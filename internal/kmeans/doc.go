// Package kmeans implements weighted k-means clustering.
//
// Used to fit k centers to a weighted coreset: k-means++ seeding with
// sampling proportional to weight times squared distance, followed by
// Lloyd iterations on weighted means.
package kmeans
