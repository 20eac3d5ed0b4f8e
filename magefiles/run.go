//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Checks the shaders and runs the engine in a window.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	// glfw is a cgo binding
	_, err := executeCmd("go", withArgs("run", "."), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Runs the engine without a window for a fixed number of frames.
func (Run) Headless() error {
	if err := buildShaders(); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("run", ".", "-headless", "-frames", "120"), withStream())
	return err
}

// Prints the reflection summary of every shader.
func (Run) Reflect() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/socoreflect"), withStream())
	return err
}
