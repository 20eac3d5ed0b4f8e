//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles and reflects every shader manifest under assets/shaders.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the engine and the socoreflect tool into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Deps)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/soco", "."), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", "bin/socoreflect", "./cmd/socoreflect"), withStream())
	return err
}

// Tidies and downloads the module dependencies.
func (Build) Deps() error {
	return goTidy()
}

// Runs the unit tests.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
