package privacysuite

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Config is the in-memory shape of the proxy's recognized options. Loading
// it from disk (TOML, file watching, a dotfile under the user's home
// directory or similar) is the excluded "persisted configuration"
// collaborator; this type only holds the parsed values plus their defaults.
type Config struct {
	// ProxyAddr is the listen address for the HTTP/HTTPS forward proxy.
	ProxyAddr string `default:"0.0.0.0:8888"`
	// NumHops is advisory only — the Node registry is not yet load-bearing.
	NumHops int `default:"3"`
	// DNSServers is carried through for a future resolver; unused by the core.
	DNSServers []string `default:"1.1.1.1:53,8.8.8.8:53"`
	// FingerprintProtection enables a random browser fingerprint, drawn once at
	// startup and reused for every session of the process.
	FingerprintProtection bool `default:"true"`
	// TrackerLists are blocklist refresh URLs; unused until a refresh job exists.
	TrackerLists []string
	// NodeDBPath is reserved for a future Node persistence layer.
	NodeDBPath string `default:"./privacysuite-nodes.db"`
}

// ApplyDefaults fills every zero-valued field tagged `default:"..."`,
// generalizing the teacher's reflect-tag defaulting to also cover bool
// fields (the teacher's original only handled string/int/[]string).
func ApplyDefaults(cfg *Config) {
	tof := reflect.TypeOf(cfg).Elem()
	vof := reflect.ValueOf(cfg).Elem()

	for i := 0; i < vof.NumField(); i++ {
		vf := vof.Field(i)
		v := tof.Field(i).Tag.Get("default")

		if v == "" || !vf.IsZero() {
			continue
		}

		switch vf.Kind() {
		case reflect.String:
			vf.SetString(v)
		case reflect.Int:
			if intv, err := strconv.ParseInt(v, 10, 64); err == nil {
				vf.SetInt(intv)
			}
		case reflect.Bool:
			if b, err := strconv.ParseBool(v); err == nil {
				vf.SetBool(b)
			}
		case reflect.Slice:
			if vf.Type().Elem().Kind() == reflect.String {
				values := strings.Split(v, ",")
				vf.Set(reflect.ValueOf(values))
			}
		}
	}
}

// Validate enforces `validate:"required"` tags, exiting the process on the
// first unmet requirement — matching the teacher's own validate().
func Validate(cfg *Config) {
	tof := reflect.TypeOf(cfg).Elem()
	vof := reflect.ValueOf(cfg).Elem()

	for i := 0; i < vof.NumField(); i++ {
		tf := tof.Field(i)
		vf := vof.Field(i)

		v := tf.Tag.Get("validate")
		if v == "" {
			continue
		}

		if strings.Contains(v, "required") && vf.IsZero() {
			fmt.Printf("Field \"%s\" is required\n", tf.Name)
			os.Exit(1)
		}
	}
}
