/*
DESCRIPTION
  Stub preview for builds without the sdl tag.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build !sdl

package main

import "github.com/ausocean/sanjuuni/convert"

// setupPreview is a no-op without the sdl build tag.
func setupPreview(*convert.Converter) func() { return func() {} }
