// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the top-level configuration, found under the `l2send:` root
// key in YAML.
type Config struct {
	Interface InterfaceConfig `mapstructure:"interface" yaml:"interface"`
	Socket    SocketConfig    `mapstructure:"socket" yaml:"socket"`
	Frame     FrameConfig     `mapstructure:"frame" yaml:"frame"`
	Monitor   MonitorConfig   `mapstructure:"monitor" yaml:"monitor"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ─── Interface ───

// InterfaceConfig names the interface the frame leaves on.
type InterfaceConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	IoctlRequest uint   `mapstructure:"ioctl_request" yaml:"ioctl_request"` // SIOCGIFINDEX
}

// ─── Socket ───

// SocketConfig configures the raw socket.
type SocketConfig struct {
	Protocol  uint   `mapstructure:"protocol" yaml:"protocol"`     // host order; 255 = IPPROTO_RAW
	ShortSend string `mapstructure:"short_send" yaml:"short_send"` // error | warn
}

// ─── Frame ───

// FrameConfig holds the header written at the start of the frame.
type FrameConfig struct {
	Destination HardwareAddr `mapstructure:"destination" yaml:"destination"`
	Source      HardwareAddr `mapstructure:"source" yaml:"source"`
}

// HardwareAddr is a MAC address that decodes from and encodes to its
// colon-separated text form.
type HardwareAddr net.HardwareAddr

func (a *HardwareAddr) UnmarshalText(text []byte) error {
	hw, err := net.ParseMAC(string(text))
	if err != nil {
		return err
	}
	*a = HardwareAddr(hw)
	return nil
}

func (a HardwareAddr) MarshalText() ([]byte, error) {
	return []byte(net.HardwareAddr(a).String()), nil
}

func (a HardwareAddr) String() string {
	return net.HardwareAddr(a).String()
}

// ─── Monitor ───

// MonitorConfig controls the optional post-send observation.
type MonitorConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SnapLen      int           `mapstructure:"snap_len" yaml:"snap_len"`
	BufferSizeMB int           `mapstructure:"buffer_size_mb" yaml:"buffer_size_mb"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`   // debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains extra log destinations; stderr is always on.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ─── Loading ───

const rootKey = "l2send"

// configRoot is the wrapper matching the YAML structure `l2send: ...`.
type configRoot struct {
	L2Send Config `mapstructure:"l2send"`
}

// flagKeys binds command-line flags to configuration keys. Only flags that
// exist on the given flag set are bound.
var flagKeys = map[string]string{
	"interface":  "interface.name",
	"short-send": "socket.short_send",
	"verify":     "monitor.enabled",
	"timeout":    "monitor.timeout",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Load builds the configuration from defaults, the optional file at path,
// L2SEND_* environment variables and flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "l2send.interface.name" maps to env L2SEND_INTERFACE_NAME.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(rootKey+"."+key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var root configRoot
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&root, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.L2Send

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values, all under the "l2send." prefix.
func setDefaults(v *viper.Viper) {
	v.SetDefault("l2send.interface.name", "enp0s8")
	v.SetDefault("l2send.interface.ioctl_request", 0x8933)

	v.SetDefault("l2send.socket.protocol", 255)
	v.SetDefault("l2send.socket.short_send", "error")

	v.SetDefault("l2send.frame.destination", "08:00:27:01:2d:63")
	v.SetDefault("l2send.frame.source", "08:00:27:9c:cc:de")

	v.SetDefault("l2send.monitor.enabled", false)
	v.SetDefault("l2send.monitor.timeout", "2s")
	v.SetDefault("l2send.monitor.snap_len", 128)
	v.SetDefault("l2send.monitor.buffer_size_mb", 1)

	v.SetDefault("l2send.log.level", "info")
	v.SetDefault("l2send.log.format", "text")
	v.SetDefault("l2send.log.outputs.file.enabled", false)
	v.SetDefault("l2send.log.outputs.file.path", "/var/log/l2send/l2send.log")
	v.SetDefault("l2send.log.outputs.file.rotation.max_size_mb", 10)
	v.SetDefault("l2send.log.outputs.file.rotation.max_age_days", 7)
	v.SetDefault("l2send.log.outputs.file.rotation.max_backups", 3)
	v.SetDefault("l2send.log.outputs.file.rotation.compress", true)
}

// Validate checks the loaded values.
func (cfg *Config) Validate() error {
	if cfg.Interface.Name == "" {
		return fmt.Errorf("interface.name is required")
	}
	if cfg.Socket.Protocol > 0xffff {
		return fmt.Errorf("invalid socket.protocol: %d (must fit in 16 bits)", cfg.Socket.Protocol)
	}
	if cfg.Socket.ShortSend != "error" && cfg.Socket.ShortSend != "warn" {
		return fmt.Errorf("invalid socket.short_send: %s (must be error/warn)", cfg.Socket.ShortSend)
	}
	if len(cfg.Frame.Destination) != 6 {
		return fmt.Errorf("invalid frame.destination: %q (must be a 6-byte MAC)", cfg.Frame.Destination.String())
	}
	if len(cfg.Frame.Source) != 6 {
		return fmt.Errorf("invalid frame.source: %q (must be a 6-byte MAC)", cfg.Frame.Source.String())
	}
	if cfg.Monitor.Timeout <= 0 {
		return fmt.Errorf("invalid monitor.timeout: %s (must be positive)", cfg.Monitor.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	return nil
}
