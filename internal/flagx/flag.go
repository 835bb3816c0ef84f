// Package flagx contains helpers that let several components share
// os.Args without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"slices"
	"strings"
)

// FilterArgs keeps only the flags named in allowed, together with their
// values, and drops everything else. Both "-a value" and "-a=value" are
// understood. A token starting with "-" is never taken as a value.
//
// The result is never nil and keeps the order of args.
func FilterArgs(args []string, allowed []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if slices.Contains(allowed, name) {
				out = append(out, arg)
			}
			continue
		}

		if !slices.Contains(allowed, arg) {
			continue
		}
		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}

	return out
}

// ConfigFileFlag returns the path given with -c or -config (either dash
// form), or "" when there is none. Any format viper can decode is accepted;
// the file extension picks the decoder.
//
// Other arguments are ignored, so callers remain free to parse their own flags.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "config file")
	fs.StringVar(&path, "c", "", "config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
