// Package flagx lets several configuration stages share one command line.
// Each stage declares the flags it owns and parses only those, so the JSON
// loader and the flag loader never trip over each other's options.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Owned lists the flag names (without dashes) a stage understands. Value
// flags may take their argument as the next token; bool flags never do.
type Owned struct {
	Value []string
	Bool  []string
}

// Filter returns the subset of args that belongs to o, preserving order.
//
// Accepted forms: -name value, --name value, -name=value, --name=value and,
// for bool flags, a bare -name. A token that starts with '-' is never taken
// as the value of the preceding flag.
func (o Owned) Filter(args []string) []string {
	values := toSet(o.Value)
	bools := toSet(o.Bool)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")

		if _, ok := bools[name]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[name]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config file path given with -c or -config.
// The last occurrence wins; an empty string means no file was requested.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(Owned{Value: []string{"c", "config"}}.Filter(args))

	return path
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}
