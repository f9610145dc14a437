package all

import (
	// Import all the converters so they register themselves
	_ "github.com/darianmavgo/benchsql/converters/csv"
)
