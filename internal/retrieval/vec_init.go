package retrieval

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Register the sqlite-vec extension with the sqlite3 driver so vec0
	// virtual tables and vec_distance_cosine are available on every
	// connection this package opens.
	vec.Auto()
}
