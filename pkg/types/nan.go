package types

import "math"

// nan is the shared NaN sentinel used throughout the package for
// "insufficient history" leading values.
var nan = math.NaN()
