// Package scenario loads Lua campaign scripts and replays them against a
// campaign service.
//
// A script builds a Scenario and returns it:
//
//	local scene = Scenario.new("funded milestone")
//	scene:initialize({creator = "ana", admin = "bo", target = 1000, milestones = {30, 70}})
//	scene:donate("cy", 400)
//	scene:complete(0)
//	scene:approve(0)
//	scene:approve(1, {expect = "MILESTONE_NOT_COMPLETED"})
//	scene:check({current_amount = 400, milestones = {"approved", "pending"}})
//	return scene
//
// Every step succeeds unless it names the error code it expects.
package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed scenarios/*.lua
var builtinFS embed.FS

// Scenario is an ordered list of campaign steps.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted invocation or assertion.
type Step struct {
	Kind string
	Args map[string]any
}

// Builtin loads the scenarios shipped with the package, sorted by file name.
func Builtin() ([]*Scenario, error) {
	sub, err := fs.Sub(builtinFS, "scenarios")
	if err != nil {
		return nil, err
	}
	return LoadDir(sub)
}

// LoadDir loads every .lua file at the root of fsys, sorted by name.
func LoadDir(fsys fs.FS) ([]*Scenario, error) {
	paths, err := fs.Glob(fsys, "*.lua")
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		scenario, err := LoadFS(fsys, p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// LoadFS loads one scenario file from fsys.
func LoadFS(fsys fs.FS, name string) (*Scenario, error) {
	source, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", name, err)
	}
	scenario, err := LoadSource(name, string(source))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return scenario, nil
}

// LoadSource runs a Lua script and returns the Scenario it builds. Unnamed
// scenarios take the script's base name.
func LoadSource(name, source string) (*Scenario, error) {
	scenario, err := evalScenario(name, source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	return scenario, nil
}
