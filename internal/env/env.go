// Package env holds the process configuration, read once at startup from the environment and an optional .env file.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	Transport string // ble, serial, catprinter, or preview.

	SerialPorts []string
	SerialBaud  int

	BLENamePrefix string
	ScanWindow    time.Duration
	ChunkSize     int

	CatPrinterName string

	Font      string
	PointSize float64

	Symbology   string
	ModuleWidth int
	BarHeight   int
	QuietZone   int

	PreviewPath  string
	PreviewScale int

	ListenAddr string
	LogLevel   string
}

// Defaults is the configuration with nothing set.
var Defaults = Config{
	Transport:     "ble",
	SerialPorts:   []string{"/dev/ttyUSB0", "/dev/ttyACM0"},
	SerialBaud:    9600,
	BLENamePrefix: "Letratag",
	ScanWindow:    5 * time.Second,
	ChunkSize:     20,
	Font:          "goregular",
	PointSize:     28,
	Symbology:     "code128",
	ModuleWidth:   2,
	BarHeight:     62,
	QuietZone:     2,
	PreviewPath:   "label.png",
	PreviewScale:  4,
	ListenAddr:    ":8080",
	LogLevel:      "info",
}

// Value is the loaded configuration.
var Value = Defaults

// Load reads path (if it exists) into the environment without overriding variables already set, then parses the
// LETRATAG_* variables into Value.
func Load(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %v: %w", path, err)
		}
	}

	v, err := parse(os.LookupEnv)
	if err != nil {
		return err
	}
	Value = v
	return nil
}

func parse(lookup func(string) (string, bool)) (Config, error) {
	v := Defaults
	var errs []error

	str := func(name string, dst *string) {
		if s, ok := lookup("LETRATAG_" + name); ok && s != "" {
			*dst = s
		}
	}
	integer := func(name string, dst *int) {
		var s string
		if str(name, &s); s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("LETRATAG_%s: %w", name, err))
			return
		}
		*dst = n
	}

	str("TRANSPORT", &v.Transport)
	var ports string
	if str("SERIAL_PORTS", &ports); ports != "" {
		v.SerialPorts = strings.Split(ports, ",")
	}
	integer("SERIAL_BAUD", &v.SerialBaud)
	str("BLE_NAME_PREFIX", &v.BLENamePrefix)
	var window string
	if str("SCAN_WINDOW", &window); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			errs = append(errs, fmt.Errorf("LETRATAG_SCAN_WINDOW: %w", err))
		} else {
			v.ScanWindow = d
		}
	}
	integer("CHUNK_SIZE", &v.ChunkSize)
	str("CATPRINTER_NAME", &v.CatPrinterName)
	str("FONT", &v.Font)
	var size string
	if str("POINT_SIZE", &size); size != "" {
		f, err := strconv.ParseFloat(size, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("LETRATAG_POINT_SIZE: %w", err))
		} else {
			v.PointSize = f
		}
	}
	str("SYMBOLOGY", &v.Symbology)
	integer("MODULE_WIDTH", &v.ModuleWidth)
	integer("BAR_HEIGHT", &v.BarHeight)
	integer("QUIET_ZONE", &v.QuietZone)
	str("PREVIEW_PATH", &v.PreviewPath)
	integer("PREVIEW_SCALE", &v.PreviewScale)
	str("LISTEN_ADDR", &v.ListenAddr)
	str("LOG_LEVEL", &v.LogLevel)

	return v, errors.Join(errs...)
}
