package config_test

import (
	"testing"

	"github.com/go-pluto/entropy/config"
)

// Functions

// TestLoadEnv executes a black-box test on the
// implemented functionalities to load a .env file.
func TestLoadEnv(t *testing.T) {

	env, err := config.LoadEnv("test.env")
	if err != nil {
		t.Fatalf("[config.TestLoadEnv] Expected success while loading test.env but received: '%v'\n", err)
	}

	// Check for test success.
	if env.LogLevel != "info" {
		t.Fatalf("[config.TestLoadEnv] Expected '%s' but received '%s'\n", "info", env.LogLevel)
	}

	if env.BlockLogRoot != "/var/lib/entropy" {
		t.Fatalf("[config.TestLoadEnv] Expected '%s' but received '%s'\n", "/var/lib/entropy", env.BlockLogRoot)
	}

	// A missing env file has to be reported.
	_, err = config.LoadEnv("does-not-exist.env")
	if err == nil {
		t.Fatal("[config.TestLoadEnv] Expected fail while loading missing env file but received 'nil' error.")
	}
}
