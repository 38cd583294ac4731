package ygggo_conn

// Version returns the library version.
func Version() string { return "v0.1.0-dev" }
