package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c, err := LoadConfig(WithDefaults())
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:8080", c.BindAddress)
		assert.Equal(t, "/dev/ttyUSB0", c.SerialPort)
		assert.Equal(t, 115200, c.BaudRate)
		assert.Equal(t, "sim800", c.Chipset)
		assert.Equal(t, 5*time.Second, c.ATTimeout)
		assert.Equal(t, 3, c.AttachRetries)
		assert.Equal(t, 1, c.PoolCapacity)
		assert.Empty(t, c.LogFile)
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"serial_port: /dev/ttyS1\n"+
				"at_timeout: 2s\n"+
				"log_file: /var/log/cellular.log\n"), 0o600))

		c, err := LoadConfig(WithDefaults(), WithFile(path))
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyS1", c.SerialPort)
		assert.Equal(t, 2*time.Second, c.ATTimeout)
		assert.Equal(t, "/var/log/cellular.log", c.LogFile)
		assert.Equal(t, 115200, c.BaudRate, "keys missing from the file keep their value")
	})

	t.Run("Empty file path is ignored", func(t *testing.T) {
		c, err := LoadConfig(WithDefaults(), WithFile(""))
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", c.SerialPort)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("baud_rate: [fast\n"), 0o600))

		_, err := LoadConfig(WithFile(path))
		require.Error(t, err)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chipset: other\n"), 0o600))
		t.Setenv("CHIPSET", "sim800")
		t.Setenv("ATTACH_RETRIES", "7")
		t.Setenv("AT_TIMEOUT", "bogus")
		t.Setenv("POOL_CAPACITY", "4")

		c, err := LoadConfig(WithDefaults(), WithFile(path), WithEnv())
		require.NoError(t, err)
		assert.Equal(t, "sim800", c.Chipset)
		assert.Equal(t, 7, c.AttachRetries)
		assert.Equal(t, 4, c.PoolCapacity)
		assert.Equal(t, 5*time.Second, c.ATTimeout, "unparsable values are ignored")
	})

	t.Run("Flags override environment", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "warn")

		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.String("log-level", "info", "")
		fs.Duration("at-timeout", 5*time.Second, "")
		fs.Int("pool-capacity", 1, "")
		fs.String("serial-port", "/dev/ttyUSB0", "")
		require.NoError(t, fs.Parse([]string{"-log-level=debug", "-at-timeout=750ms", "-pool-capacity=2"}))

		c, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
		require.NoError(t, err)
		assert.Equal(t, "debug", c.LogLevel)
		assert.Equal(t, 750*time.Millisecond, c.ATTimeout)
		assert.Equal(t, 2, c.PoolCapacity)
		assert.Equal(t, "/dev/ttyUSB0", c.SerialPort, "unset flags do not override")
	})
}
