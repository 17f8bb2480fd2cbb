package config

import (
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	Replica Replica
	Sync    Sync
	Peers   map[string]Peer
}

// Replica describes the local replica shard this
// process maintains the hash tree for.
type Replica struct {
	Name           string
	BlockLogLoc    string
	PrometheusAddr string
}

// Sync configures the anti-entropy loop.
type Sync struct {
	Interval      string
	CompareBudget int

	// IntervalDur is the parsed form of Interval,
	// filled in by LoadConfig.
	IntervalDur time.Duration `toml:"-"`
}

// Peer names one remote replica the anti-entropy
// loop checks for divergence.
type Peer struct {
	Name           string
	PublicSyncAddr string
}

// Functions

// LoadConfig takes in the path to the main config file
// of entropy in TOML syntax and places the values from
// the file in the corresponding struct.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	_, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in TOML config file at '%s'", configFile)
	}

	if conf.Replica.Name == "" {
		return nil, errors.New("replica name must not be empty")
	}

	// An unset interval defaults to one minute.
	if conf.Sync.Interval == "" {
		conf.Sync.Interval = "1m"
	}

	conf.Sync.IntervalDur, err = time.ParseDuration(conf.Sync.Interval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse sync interval '%s'", conf.Sync.Interval)
	}

	if conf.Sync.IntervalDur <= 0 {
		return nil, errors.Errorf("sync interval '%s' must be positive", conf.Sync.Interval)
	}

	// Each peer carries the name it is keyed by.
	for name, peer := range conf.Peers {

		if peer.Name == "" {
			peer.Name = name
			conf.Peers[name] = peer
		}
	}

	// Prefix a relative block log location with the
	// absolute directory of the config file, so that
	// the process can be started from anywhere.
	if (conf.Replica.BlockLogLoc != "") && !filepath.IsAbs(conf.Replica.BlockLogLoc) {

		absConfigDir, err := filepath.Abs(filepath.Dir(configFile))
		if err != nil {
			return nil, errors.Wrap(err, "could not get absolute path of config directory")
		}

		conf.Replica.BlockLogLoc = filepath.Join(absConfigDir, conf.Replica.BlockLogLoc)
	}

	return conf, nil
}
