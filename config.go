package rulepeg

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Config is a map of typed settings read by the Parser.  Setting a
// key to a value of another type, or reading a key that doesn't
// exist, are programming errors and panic.
type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with the
// default values expected by the parser.
func NewConfig() *Config {
	m := make(Config)
	// skip whitespace before every token
	m.SetBool("parser.skip_whitespace", true)
	// cache match attempts per position and pattern
	m.SetBool("parser.memoize", true)
	// max entries kept in the cache, zero means no limit
	m.SetInt("parser.memo_limit", 0)
	// resolve line numbers of syntax errors
	m.SetBool("parser.track_lines", true)
	// max nesting of rule calls, zero means no limit
	m.SetInt("parser.max_depth", 0)
	// collect what was expected at the furthest failure position
	m.SetBool("parser.show_fails", true)
	// log every rule call at debug level
	m.SetBool("parser.trace", false)
	return &m
}

// Keys returns the sorted names of all the settings
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(*c))
	for k := range *c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Debug writes all the settings and their values to `w`
func (c *Config) Debug(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := c.Keys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k])
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	switch vt {
	case cfgValType_Bool:
		return "bool"
	case cfgValType_Int:
		return "int"
	case cfgValType_String:
		return "string"
	default:
		return "undefined"
	}
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	default:
		return "(undefined)"
	}
}

// set stores `v` under `path`, refusing to change the type of an
// existing setting
func (c *Config) set(path string, v cfgVal) {
	if prev, ok := (*c)[path]; ok && prev.typ != v.typ {
		panic(fmt.Sprintf("Can't assign `%s` to `%s` setting `%s`", v.typ, prev.typ, path))
	}
	(*c)[path] = &v
}

func (c *Config) get(path string, vt cfgValType) *cfgVal {
	val, ok := (*c)[path]
	if !ok {
		panic(fmt.Sprintf("%s setting `%s` does not exist", vt, path))
	}
	if val.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` setting `%s`", vt, val.typ, path))
	}
	return val
}

func (c *Config) SetBool(path string, v bool) {
	c.set(path, cfgVal{typ: cfgValType_Bool, asBool: v})
}

func (c *Config) SetInt(path string, v int) {
	c.set(path, cfgVal{typ: cfgValType_Int, asInt: v})
}

func (c *Config) SetString(path string, v string) {
	c.set(path, cfgVal{typ: cfgValType_String, asString: v})
}

func (c *Config) GetBool(path string) bool     { return c.get(path, cfgValType_Bool).asBool }
func (c *Config) GetInt(path string) int       { return c.get(path, cfgValType_Int).asInt }
func (c *Config) GetString(path string) string { return c.get(path, cfgValType_String).asString }

// Parse sets an existing setting from its textual representation,
// converting it to the type of the setting.  It's how values coming
// from flags, files and environment variables get in.
func (c *Config) Parse(path, value string) error {
	val, ok := (*c)[path]
	if !ok {
		return fmt.Errorf("unknown setting `%s`", path)
	}
	switch val.typ {
	case cfgValType_Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("setting `%s`: %w", path, err)
		}
		c.SetBool(path, b)
	case cfgValType_Int:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("setting `%s`: %w", path, err)
		}
		c.SetInt(path, i)
	default:
		c.SetString(path, value)
	}
	return nil
}

// Clone returns a copy of the configuration that can be changed
// without affecting the original
func (c *Config) Clone() *Config {
	m := make(Config, len(*c))
	for k, v := range *c {
		cp := *v
		m[k] = &cp
	}
	return &m
}
