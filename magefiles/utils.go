//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
)

type cmdOptions struct {
	args   []string
	env    []string
	stream bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) {
		o.args = args
	}
}

func withEnv(key, value string) cmdOption {
	return func(o *cmdOptions) {
		o.env = append(o.env, key+"="+value)
	}
}

func withStream() cmdOption {
	return func(o *cmdOptions) {
		o.stream = true
	}
}

func executeCmd(command string, options ...cmdOption) (string, error) {
	opts := &cmdOptions{}
	for _, o := range options {
		o(opts)
	}

	fmt.Printf("Executing: %s %s\n", command, strings.Join(opts.args, " "))
	cmd := exec.Command(command, opts.args...)
	if len(opts.env) > 0 {
		cmd.Env = append(os.Environ(), opts.env...)
	}

	streamOutput := mg.Verbose() || opts.stream

	var b bytes.Buffer
	if streamOutput {
		cmd.Stdout = io.MultiWriter(&b, os.Stdout)
		cmd.Stderr = io.MultiWriter(&b, os.Stderr)
	} else {
		cmd.Stdout = &b
		cmd.Stderr = &b
	}
	if err := cmd.Run(); err != nil {
		if !streamOutput {
			fmt.Println("... failed command output:")
			fmt.Println(b.String())
		}
		return "", fmt.Errorf("error executing %s: %w", command, err)
	}
	return b.String(), nil
}

// buildShaders compiles every manifest and fails on the first broken one.
func buildShaders() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/socoreflect", "-check", "-assets", "assets"), withStream())
	return err
}

func goTidy() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return fmt.Errorf("failed to run go mod download: %w", err)
	}
	return nil
}
