package dsp

import (
	_ "embed"
)

// RuntimeJS is the contents of lib/dsp.js, the support library that
// generated code renders against.  Deployments serve or bundle it ahead of
// any generated file.
//
//go:embed lib/dsp.js
var RuntimeJS []byte
