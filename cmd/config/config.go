package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
)

// ConfigCmd groups the commands that read and edit config.yaml in the rancher home.
func ConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the rancher config file",
		Long: `Read and edit config.yaml in the rancher home.

Keys are the yaml names joined by dots, for example claim.mode or
chain_config.rpc_addrs. Run "rancher config keys" for the full list.
The private key and owner account are never stored here, set them with
PRIVATE_KEY and OWNER in the environment or a .env file.`,
	}

	c.AddCommand(showCmd(), getCmd(), setCmd(), keysCmd())

	return c
}

func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	home, err := cmd.Flags().GetString(types.FlagHome)
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.Init(home)
	if err != nil {
		return "", nil, err
	}
	return home, cfg, nil
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [section]",
		Short: "Print the config, or one section of it",
		Example: `  rancher config show
  rancher config show claim`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				data, err := cfg.Export()
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			}

			out, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print a single config value",
		Long:  "Print a single config value. Lists print comma separated, sections print as yaml.",
		Example: `  rancher config get claim.mode
  rancher config get api_config.port
  rancher config get chain_config.rpc_addrs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change a config value",
		Long: `Change a config value and write config.yaml back.

Lists are given comma separated. The file is only written when the
resulting config is valid, so a bad rpc list or claim mode never
reaches the scheduler.`,
		Example: `  rancher config set claim.mode simple
  rancher config set claim.pass_period 120
  rancher config set chain_config.rpc_addrs https://wax.greymass.com,https://wax.eosusa.io`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			key, raw := args[0], args[1]
			if err := setConfigValue(cfg, key, raw); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("refusing to write invalid config: %w", err)
			}
			if err := config.Write(home, cfg); err != nil {
				return err
			}

			out, _ := getConfigValue(cfg, key)
			fmt.Printf("%s = %s\n", key, out)
			return nil
		},
	}
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every settable config key",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range configKeys(reflect.TypeOf(config.Config{}), "") {
				fmt.Println(k)
			}
		},
	}
}

// getConfigValue renders the value at key. Scalars print plainly, string lists
// comma separated and sections as yaml.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	v, err := lookup(cfg, key)
	if err != nil {
		return "", err
	}

	switch {
	case v.Kind() == reflect.Struct:
		data, err := yaml.Marshal(v.Interface())
		if err != nil {
			return "", fmt.Errorf("cannot render %s: %w", key, err)
		}
		return strings.TrimSpace(string(data)), nil
	case isStringList(v.Type()):
		return strings.Join(v.Interface().([]string), ","), nil
	default:
		return fmt.Sprint(v.Interface()), nil
	}
}

// setConfigValue parses raw into the leaf at key. Sections cannot be set whole.
func setConfigValue(cfg *config.Config, key string, raw string) error {
	v, err := lookup(cfg, key)
	if err != nil {
		return err
	}
	if v.Kind() == reflect.Struct {
		return fmt.Errorf("%s is a section, set one of its keys instead", key)
	}

	parsed, err := parseValue(v.Type(), raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	v.Set(parsed)
	return nil
}

// lookup walks a dotted yaml path from the config root.
func lookup(cfg *config.Config, key string) (reflect.Value, error) {
	v := reflect.ValueOf(cfg).Elem()
	walked := make([]string, 0)

	for _, part := range strings.Split(key, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s has no key %q", strings.Join(walked, "."), part)
		}

		i, ok := fieldIndex(v.Type(), part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown config key %q, expected one of %s",
				key, strings.Join(yamlNames(v.Type()), ", "))
		}
		v = v.Field(i)
		walked = append(walked, part)
	}

	return v, nil
}

func parseValue(t reflect.Type, raw string) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.String:
		out.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, fmt.Errorf("%q is not true or false", raw)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return out, fmt.Errorf("%q is not a whole number", raw)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return out, fmt.Errorf("%q is not a positive whole number", raw)
		}
		out.SetUint(n)
	default:
		if !isStringList(t) {
			return out, fmt.Errorf("values of type %s cannot be set from the command line", t)
		}
		items := make([]string, 0)
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		out.Set(reflect.ValueOf(items))
	}

	return out, nil
}

func isStringList(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String
}

func yamlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	return name
}

func fieldIndex(t reflect.Type, name string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		if yamlName(t.Field(i)) == name {
			return i, true
		}
	}
	return 0, false
}

func yamlNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if n := yamlName(t.Field(i)); n != "" && n != "-" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// configKeys lists every leaf key below t in dotted form, sorted.
func configKeys(t reflect.Type, prefix string) []string {
	keys := make([]string, 0)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := yamlName(f)
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, configKeys(f.Type, name)...)
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
