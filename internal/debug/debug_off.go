//go:build !debug

// Package debug provides build-tag gated assertions used to document and
// (in debug builds) enforce invariants that are programmer error and not
// recoverable, such as a channel.Listener registering itself on its own
// channel. Mirrors aistore's cmn/debug package: a no-op build by default, a
// panicking build under the "debug" tag.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
