package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"wbtracker/internal/schedule"
)

// FileName is the config file inside a workspace.
const FileName = "wb.yml"

//go:embed schema.json
var schemaJSON []byte

// Config models wb.yml.
type Config struct {
	Schedule            map[string][]string `yaml:"schedule"`
	Channels            Channels            `yaml:"channels"`
	Emojis              Emojis              `yaml:"emojis"`
	TimezoneOffsetHours int                 `yaml:"timezone_offset_hours"`
	Gateway             Gateway             `yaml:"gateway"`
	API                 API                 `yaml:"api"`
	Log                 Log                 `yaml:"log"`
}

type Channels struct {
	Warbands []string `yaml:"warbands"`
	Alerts   []string `yaml:"alerts"`
	PreVoice string   `yaml:"pre_voice"`
	Voice    string   `yaml:"voice"`
}

type Emojis struct {
	Static   map[string]string `yaml:"static"`
	Animated map[string]string `yaml:"animated"`
}

type Gateway struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type API struct {
	Addr      string `yaml:"addr"`
	BasePath  string `yaml:"base_path"`
	JWTSecret string `yaml:"jwt_secret"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Emoji returns the platform markup for a named custom emoji, static first,
// or "" when the name is not configured.
func (c *Config) Emoji(name string) string {
	if id, ok := c.Emojis.Static[name]; ok && id != "" {
		return fmt.Sprintf("<:%s:%s>", name, id)
	}
	if id, ok := c.Emojis.Animated[name]; ok && id != "" {
		return fmt.Sprintf("<a:%s:%s>", name, id)
	}
	return ""
}

// IsWarbandsChannel reports whether id is on the report allowlist.
func (c *Config) IsWarbandsChannel(id string) bool {
	for _, ch := range c.Channels.Warbands {
		if ch == id {
			return true
		}
	}
	return false
}

// ParsedSchedule converts the schedule section.
func (c *Config) ParsedSchedule() (schedule.Schedule, error) {
	return schedule.Parse(c.Schedule)
}

// Validate checks what the schema cannot express.
func (c *Config) Validate() error {
	if len(c.Channels.Warbands) == 0 {
		return fmt.Errorf("config.channels.warbands must list at least one channel")
	}
	for i, ch := range c.Channels.Warbands {
		if ch == "" {
			return fmt.Errorf("config.channels.warbands[%d] is empty", i)
		}
	}
	days := make([]string, 0, len(c.Schedule))
	for day := range c.Schedule {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if _, ok := schedule.ParseWeekday(day); !ok {
			return fmt.Errorf("config.schedule: unknown weekday %q", day)
		}
		for _, t := range c.Schedule[day] {
			if _, _, err := schedule.ParseClock(t); err != nil {
				return fmt.Errorf("config.schedule.%s: %w", day, err)
			}
		}
	}
	if c.TimezoneOffsetHours < -12 || c.TimezoneOffsetHours > 14 {
		return fmt.Errorf("config.timezone_offset_hours must be within -12..14")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with wb init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses config from raw YAML bytes, checks it against the embedded
// schema, applies defaults for absent keys and validates the result.
func FromYAML(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var compiledSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("wb.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("wb.schema.json")
}()

func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid config yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	// Round-trip through JSON so the validator sees JSON value types.
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid config yaml: %w", err)
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}

// base holds the defaults that absent keys fall back to.
func base() *Config {
	return &Config{
		TimezoneOffsetHours: -3,
		API:                 API{Addr: "127.0.0.1:8787", BasePath: "/v0"},
		Log:                 Log{Level: "info"},
	}
}

// GenerateDefault returns the starter config YAML for one warbands channel.
// The channel id is emitted as a double-quoted scalar.
func GenerateDefault(warbandsChannel string) string {
	return fmt.Sprintf(defaultTemplate, strconv.Quote(warbandsChannel))
}

// Default returns the starter Config, parsed and validated like a file.
func Default(warbandsChannel string) (*Config, error) {
	cfg, err := FromYAML([]byte(GenerateDefault(warbandsChannel)))
	if err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	return cfg, nil
}

const defaultTemplate = `# Event starts, UTC, per weekday.
schedule:
  domingo: ["02:00", "09:00", "16:00", "23:00"]
  segunda: ["06:00", "13:00", "20:00"]
  terca: ["03:00", "10:00", "17:00"]
  quarta: ["00:00", "07:00", "14:00", "21:00"]
  quinta: ["04:00", "11:00", "18:00"]
  sexta: ["01:00", "08:00", "15:00", "22:00"]
  sabado: ["05:00", "12:00", "19:00"]

channels:
  warbands: [%s]
  alerts: []
  pre_voice: ""
  voice: ""

emojis:
  static: {}
  animated: {}

timezone_offset_hours: -3

gateway:
  url: ""
  token: ""

api:
  addr: "127.0.0.1:8787"
  base_path: "/v0"
  jwt_secret: ""

log:
  level: info
  json: false
`
