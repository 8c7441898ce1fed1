package logging

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// LogFilePath builds the session log path for a team. Characters that are
// unsafe in file names are replaced with underscores.
func LogFilePath(logsDir, teamName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("antclient.%s.%s.log", safeFileName(teamName), sessionStart.Format("20060102_150405")),
	)
}

func safeFileName(name string) string {
	name = strings.Trim(name, "\x00 ")
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
