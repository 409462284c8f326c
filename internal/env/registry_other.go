//go:build !windows

package env

// SystemJavaHome has no registry to consult outside Windows
func SystemJavaHome() string {
	return ""
}

// RegisteredJavaHomes has no registry to consult outside Windows
func RegisteredJavaHomes() []string {
	return nil
}
