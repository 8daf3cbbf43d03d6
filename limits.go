package keypager

const (
	DefaultSize = 100
	MaxSize     = 1000
)

// IsNormalizedSizeMax returns the page size to use and whether the requested
// size was accepted as is.
func IsNormalizedSizeMax(size int, maxSize int) (int, bool) {
	if size <= 0 {
		return min(DefaultSize, maxSize), false
	} else if size > maxSize {
		return maxSize, false
	}

	return size, true
}

func NormalizeSizeMax(size int, maxSize int) int {
	ret, _ := IsNormalizedSizeMax(size, maxSize)
	return ret
}
