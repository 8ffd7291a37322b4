// Package nlog is a thin leveled-logging façade over glog, matching the
// shape of the teacher's cmn/nlog package: a handful of package-level
// functions rather than a logger value threaded through every call site.
package nlog

import "github.com/golang/glog"

// Infoln logs at the info level.
func Infoln(args ...any) { glog.InfoDepth(1, args...) }

// Warningln logs at the warning level.
func Warningln(args ...any) { glog.WarningDepth(1, args...) }

// Errorln logs at the error level.
func Errorln(args ...any) { glog.ErrorDepth(1, args...) }

// Infof logs a formatted message at the info level.
func Infof(format string, args ...any) { glog.Infof(format, args...) }

// Warningf logs a formatted message at the warning level.
func Warningf(format string, args ...any) { glog.Warningf(format, args...) }

// Errorf logs a formatted message at the error level.
func Errorf(format string, args ...any) { glog.Errorf(format, args...) }

// Flush flushes any buffered log entries; call before process exit.
func Flush() { glog.Flush() }
