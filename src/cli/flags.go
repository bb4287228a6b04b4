// Package cli contains helper functions related to flag parsing, shared by
// the command-line front end.
package cli

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/thought-machine/go-flags"
)

// ParseFlags parses the app's flags and returns the parser, any extra arguments, and any error
// encountered. It may exit if certain options are encountered (eg. --help).
func ParseFlags(appname string, data interface{}, args []string) (*flags.Parser, []string, error) {
	parser := flags.NewNamedParser(path.Base(args[0]), flags.HelpFlag|flags.PassDoubleDash)
	parser.AddGroup(appname+" options", "", data)
	extraArgs, err := parser.ParseArgs(args[1:])
	if err != nil {
		if err.(*flags.Error).Type == flags.ErrHelp {
			writeUsage(data)
			fmt.Printf("%s\n", err)
			os.Exit(0)
		}
	}
	return parser, extraArgs, err
}

// ParseFlagsOrDie parses the app's flags and dies if unsuccessful.
// Also dies if any unexpected arguments are passed.
func ParseFlagsOrDie(appname string, data interface{}) *flags.Parser {
	parser, extraArgs, err := ParseFlags(appname, data, os.Args)
	if err != nil {
		writeUsage(data)
		parser.WriteHelp(os.Stderr)
		fmt.Printf("\n%s\n", err)
		os.Exit(1)
	} else if len(extraArgs) > 0 {
		writeUsage(data)
		fmt.Printf("Unknown option %s\n", extraArgs)
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	return parser
}

// writeUsage prints any usage specified on the flag struct.
func writeUsage(opts interface{}) {
	if s := getUsage(opts); s != "" {
		fmt.Println(s)
		fmt.Println("")
	}
}

// getUsage extracts any usage specified on a flag struct.
// It is set on a field named Usage, either by value or in a struct tag named usage.
func getUsage(opts interface{}) string {
	if field := reflect.ValueOf(opts).Elem().FieldByName("Usage"); field.IsValid() && field.String() != "" {
		return strings.TrimSpace(field.String())
	}
	if field, present := reflect.TypeOf(opts).Elem().FieldByName("Usage"); present {
		return field.Tag.Get("usage")
	}
	return ""
}

// A ConfigAxis is a flag-bindable string naming a matrix config axis value, used for
// --build_config=<v> / --build_arch=<v>. It's a distinct type rather than a bare
// string purely so it implements flags.Unmarshaler.
type ConfigAxis string

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (c *ConfigAxis) UnmarshalFlag(value string) error {
	if value == "" {
		return &flags.Error{Type: flags.ErrMarshal, Message: "config axis value must not be empty"}
	}
	*c = ConfigAxis(value)
	return nil
}

// String implements the fmt.Stringer interface.
func (c ConfigAxis) String() string {
	return string(c)
}
