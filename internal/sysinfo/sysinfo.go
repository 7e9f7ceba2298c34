// Package sysinfo provides the hardware-parallelism hint that
// executor.Instance() sizes itself to. Grounded in the
// teacher's sys/cpu.go, trimmed to the one fact this library needs: Go's
// GOMAXPROCS already reflects container CPU quotas on the platforms aistore
// itself special-cases, so the cgroup-sniffing half of sys/cpu.go is not
// reproduced here (see DESIGN.md).
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package sysinfo

import "runtime"

// NumCPU returns the hardware parallelism hint used to size the default,
// process-wide Executor. Always at least 1.
func NumCPU() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}
