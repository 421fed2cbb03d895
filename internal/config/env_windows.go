//go:build windows

package config

// mapEnvKey translates Unix-style variable names used in config files
// to their Windows equivalents.
func mapEnvKey(key string) string {
	switch key {
	case "HOSTNAME":
		return "COMPUTERNAME"
	default:
		return key
	}
}
