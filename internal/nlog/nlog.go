// Package nlog is sthread's internal leveled logger. Its API shape is
// grounded in aistore's cmn/nlog package (Infoln/Infof/Warningf/Errorf,
// a severity-gated fast path); the buffered file-rotation machinery of that
// package is dropped here because a library carries no persisted state and
// must not write files on the caller's behalf.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var (
	mu  sync.Mutex
	out = os.Stderr
	lvl = sevWarn // default: quiet unless something needs attention
)

// SetLevel controls the minimum severity that reaches the writer. Tests and
// embedding applications that want verbose tracing call SetLevel(0).
func SetLevel(l int) {
	mu.Lock()
	lvl = severity(l)
	mu.Unlock()
}

func log(sev severity, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if sev < lvl {
		return
	}
	var tag string
	switch sev {
	case sevInfo:
		tag = "I"
	case sevWarn:
		tag = "W"
	default:
		tag = "E"
	}
	ts := time.Now().Format("15:04:05.000000")
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	fmt.Fprintf(out, "%s %s %s\n", tag, ts, msg)
}

func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Infoln(args ...any)                  { log(sevInfo, fmt.Sprint(args...)) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Warningln(args ...any)               { log(sevWarn, fmt.Sprint(args...)) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }
func Errorln(args ...any)                 { log(sevErr, fmt.Sprint(args...)) }
