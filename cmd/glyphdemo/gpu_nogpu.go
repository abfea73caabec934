//go:build nogpu

package main

import (
	"errors"

	"github.com/gogpu/glyphfield/render"
)

func openGPU() (render.Renderer, error) {
	return nil, errors.New("built without GPU support")
}
