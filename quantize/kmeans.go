/*
NAME
  kmeans.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package quantize

import (
	"sync"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

// kMeansMaxIter bounds the refinement loop.
const kMeansMaxIter = 100

type kmeansCluster struct {
	centroid frame.Vec3
	members  []int // indexes into the pixel vector
}

// KMeans produces an n-color palette for img by k-means clustering,
// seeded with the median-cut palette. Bucketization and recentering
// are fanned out per centroid over the work queue; each bucketization
// task merges into the shared clusters under per-centroid locks.
func KMeans(img *frame.Image, n int, q *workqueue.Queue) (frame.Palette, error) {
	seed, err := MedianCut(img, frame.MaxColors, q)
	if err != nil {
		return nil, err
	}

	pixels := make([]frame.Vec3, len(img.Pix))
	for i, c := range img.Pix {
		pixels[i] = c.Vec()
	}

	clusters := make([]kmeansCluster, n)
	next := make([]kmeansCluster, n)
	for i := range clusters {
		if i < len(seed) {
			clusters[i].centroid = seed[i].Vec()
		}
	}

	// Initial pass: place every pixel in its nearest seed bucket.
	for i, p := range pixels {
		ni := nearestCluster(clusters, p)
		clusters[ni].members = append(clusters[ni].members, i)
	}

	// First recenter.
	for i := range clusters {
		next[i].centroid = clusterMean(pixels, clusters[i].members, clusters[i].centroid)
	}

	locks := make([]sync.Mutex, n)
	changed := true
	for loop := 0; loop < kMeansMaxIter && changed; loop++ {
		changed = false

		// Bucketize: distribute each old cluster's members over the new
		// centroids. Tasks accumulate locally and merge under the
		// per-centroid locks.
		for i := range clusters {
			members := clusters[i].members
			q.Push(func() error {
				local := make([][]int, n)
				for _, pi := range members {
					ni := nearestCluster(next, pixels[pi])
					local[ni] = append(local[ni], pi)
				}
				for j := range local {
					if len(local[j]) == 0 {
						continue
					}
					locks[j].Lock()
					next[j].members = append(next[j].members, local[j]...)
					locks[j].Unlock()
				}
				return nil
			})
		}
		if err := q.Wait(); err != nil {
			return nil, err
		}
		clusters, next = next, clusters

		// Recenter each cluster; empty clusters keep their centroid.
		var mu sync.Mutex
		for i := range clusters {
			i := i
			q.Push(func() error {
				if len(clusters[i].members) != 0 {
					mean := clusterMean(pixels, clusters[i].members, clusters[i].centroid)
					if mean.Trunc() != clusters[i].centroid.Trunc() {
						mu.Lock()
						changed = true
						mu.Unlock()
					}
					next[i].centroid = mean
				} else {
					next[i].centroid = clusters[i].centroid
				}
				next[i].members = next[i].members[:0]
				return nil
			})
		}
		if err := q.Wait(); err != nil {
			return nil, err
		}
	}

	pal := make(frame.Palette, n)
	for i := range next {
		pal[i] = next[i].centroid.Trunc()
	}
	return pal.Reorder(), nil
}

func nearestCluster(cs []kmeansCluster, p frame.Vec3) int {
	best := 0
	dist := frame.DistanceVec(cs[0].centroid, p)
	for i := 1; i < len(cs); i++ {
		if d := frame.DistanceVec(cs[i].centroid, p); d < dist {
			best = i
			dist = d
		}
	}
	return best
}

func clusterMean(pixels []frame.Vec3, members []int, fallback frame.Vec3) frame.Vec3 {
	if len(members) == 0 {
		return fallback
	}
	var sum frame.Vec3
	for _, i := range members {
		sum = sum.Add(pixels[i])
	}
	return sum.Scale(1 / float64(len(members)))
}
