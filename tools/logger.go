package tools

import (
	"fmt"

	"github.com/golang/glog"
)

var isEnabled = true

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

// LogOutput prints progress messages unless the tiler runs silently. Errors go through glog directly.
func LogOutput(val ...interface{}) {
	if isEnabled {
		glog.InfoDepth(1, fmt.Sprintln(val...))
	}
}
