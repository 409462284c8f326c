//go:build windows

package env

import (
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

var (
	systemEnvRegPath = `System\CurrentControlSet\Control\Session Manager\Environment`

	javaSoftRegPaths = []string{
		`SOFTWARE\JavaSoft\JDK`,
		`SOFTWARE\JavaSoft\JRE`,
		`SOFTWARE\JavaSoft\Java Runtime Environment`,
		`SOFTWARE\JavaSoft\Java Development Kit`,
	}
)

// SystemJavaHome returns the machine-wide JAVA_HOME from the registry.
// A fresh process can miss it until the user restarts their session.
func SystemJavaHome() string {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, systemEnvRegPath, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()

	value, _, err := key.GetStringValue("JAVA_HOME")
	if err != nil {
		return ""
	}
	return filepath.Clean(value)
}

// RegisteredJavaHomes lists the JavaHome values that installers record
// under HKLM\SOFTWARE\JavaSoft
func RegisteredJavaHomes() []string {
	homes := make([]string, 0)

	for _, regPath := range javaSoftRegPaths {
		root, err := registry.OpenKey(registry.LOCAL_MACHINE, regPath, registry.ENUMERATE_SUB_KEYS)
		if err != nil {
			continue
		}

		names, err := root.ReadSubKeyNames(-1)
		root.Close()
		if err != nil {
			continue
		}

		for _, name := range names {
			sub, err := registry.OpenKey(registry.LOCAL_MACHINE, regPath+`\`+name, registry.QUERY_VALUE)
			if err != nil {
				continue
			}
			home, _, err := sub.GetStringValue("JavaHome")
			sub.Close()
			if err == nil && home != "" {
				homes = append(homes, filepath.Clean(home))
			}
		}
	}

	return homes
}
