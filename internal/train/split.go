package train

import "math/rand"

// Split partitions record indices into train and test sets with a seeded
// shuffle, so the same corpus and seed always produce the same split. At
// least one record stays in the training set.
func Split(n int, testFraction float64, seed int64) (trainIdx, testIdx []int) {
	if n == 0 {
		return nil, nil
	}
	if testFraction < 0 {
		testFraction = 0
	}
	if testFraction > 0.9 {
		testFraction = 0.9
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	testSize := int(float64(n) * testFraction)
	if testSize >= n {
		testSize = n - 1
	}
	return order[testSize:], order[:testSize]
}
