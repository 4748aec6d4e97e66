package main

import (
	"errors"

	"botcore/pkg/cmd"

	"github.com/tidwall/gjson"
)

// Option types Discord uses for subcommands and subcommand groups.
const (
	optionSubCommand      = 1
	optionSubCommandGroup = 2
)

var errBadPayload = errors.New("slash payload must be a JSON object with a name")

// parseSlash reads an interaction payload shaped like Discord's command data:
//
//	{"name":"prefix","options":[{"name":"set","type":1,"options":[{"name":"prefix","value":"?"}]}]}
//
// A single option carrying its own options is taken as a subcommand even
// without a type.
func parseSlash(payload string) ([]string, []cmd.Option, error) {
	if !gjson.Valid(payload) {
		return nil, nil, errBadPayload
	}
	root := gjson.Parse(payload)
	name := root.Get("name").String()
	if !root.IsObject() || name == "" {
		return nil, nil, errBadPayload
	}

	path := []string{name}
	options := root.Get("options").Array()
	for len(options) == 1 && isSubcommand(options[0]) {
		path = append(path, options[0].Get("name").String())
		options = options[0].Get("options").Array()
	}

	opts := make([]cmd.Option, 0, len(options))
	for _, o := range options {
		opts = append(opts, cmd.Option{Name: o.Get("name").String(), Value: o.Get("value").Value()})
	}
	return path, opts, nil
}

func isSubcommand(o gjson.Result) bool {
	if t := o.Get("type"); t.Exists() {
		return t.Int() == optionSubCommand || t.Int() == optionSubCommandGroup
	}
	return o.Get("options").IsArray() && !o.Get("value").Exists()
}
