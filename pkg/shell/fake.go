package shell

import (
	"fmt"
	"io"
	"strings"
)

type FakeInput struct {
	Name string
	Args string
	Env  string
}

type FakeOutput struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	Error      error
}

func NewFakeInput(name string, args []string, env map[string]string) FakeInput {
	envs := []string{}
	for k, v := range env {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	input := FakeInput{
		Name: name,
		Args: strings.Join(args, ","),
		Env:  strings.Join(envs, ","),
	}
	return input
}

func NewFake(expectations map[FakeInput]FakeOutput) Exec {
	return func(cmd *Command) Result {
		input := NewFakeInput(cmd.Name, cmd.Args, cmd.Env)
		output, ok := expectations[input]
		if !ok {
			err := fmt.Errorf("unexpected input: %v", input)
			return Result{ExitStatus: 1, Error: err}
		}

		if output.Error != nil {
			return Result{ExitStatus: output.ExitStatus, Error: output.Error}
		}

		if cmd.Stdout != nil && output.Stdout != "" {
			if _, err := io.WriteString(cmd.Stdout, output.Stdout); err != nil {
				return Result{ExitStatus: 1, Error: err}
			}
		}

		if cmd.Stderr != nil && output.Stderr != "" {
			if _, err := io.WriteString(cmd.Stderr, output.Stderr); err != nil {
				return Result{ExitStatus: 1, Error: err}
			}
		}

		return Result{ExitStatus: output.ExitStatus, Error: nil}
	}
}
