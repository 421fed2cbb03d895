//go:build !windows

package config

// mapEnvKey passes keys through unchanged; only Windows needs
// translation.
func mapEnvKey(key string) string {
	return key
}
