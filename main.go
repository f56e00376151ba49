package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/env"
	"github.com/pgavlin/letratag/internal/label"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
	"github.com/pgavlin/letratag/internal/printer/ble"
	"github.com/pgavlin/letratag/internal/printer/catprinter"
	"github.com/pgavlin/letratag/internal/printer/preview"
	"github.com/pgavlin/letratag/internal/printer/serial"
)

const defaultContent = "1234567890"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "letratag"
	app.Version = "0.1.0"
	app.Usage = "Render text or a barcode and print it on a DYMO LetraTag label printer."
	app.UsageText = "letratag [options] [content]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "type, t", Value: "barcode", Usage: "`TYPE` of label: text or barcode"},
		cli.StringFlag{Name: "transport", Usage: "`TRANSPORT` to print with: ble, serial, catprinter, or preview"},
		cli.StringSliceFlag{Name: "port", Usage: "serial `PORT` to try, in order (repeatable)"},
		cli.StringFlag{Name: "font", Usage: "`FONT` for text labels: goregular, gobold, gomono, a file, or a URL"},
		cli.Float64Flag{Name: "size", Usage: "font `SIZE` in points"},
		cli.StringFlag{Name: "symbology", Usage: "barcode `SYMBOLOGY`: code128, code39, ean, datamatrix, or qr"},
		cli.StringFlag{Name: "style", Usage: "`PATH` to a JSON style sheet"},
		cli.StringFlag{Name: "dump", Usage: "write the rendered image to `PATH` as a PNG"},
		cli.StringFlag{Name: "preview", Usage: "`PATH` the preview transport writes to"},
		cli.StringFlag{Name: "serve", Usage: "serve the web form on `ADDRESS` instead of printing"},
		cli.StringFlag{Name: "env", Value: ".env", Usage: "`PATH` to a .env file"},
		cli.StringFlag{Name: "log-level", Usage: "`LEVEL` of logging: debug, info, warn, or error"},
	}
	app.Action = run
	return app
}

// config merges the environment with any flags that were set.
func config(c *cli.Context) (env.Config, error) {
	if err := env.Load(c.String("env")); err != nil {
		return env.Config{}, err
	}
	v := env.Value

	if c.IsSet("transport") {
		v.Transport = c.String("transport")
	}
	if c.IsSet("port") {
		v.SerialPorts = c.StringSlice("port")
	}
	if c.IsSet("font") {
		v.Font = c.String("font")
	}
	if c.IsSet("size") {
		v.PointSize = c.Float64("size")
	}
	if c.IsSet("symbology") {
		v.Symbology = c.String("symbology")
	}
	if c.IsSet("preview") {
		v.PreviewPath = c.String("preview")
	}
	if c.IsSet("serve") {
		v.ListenAddr = c.String("serve")
	}
	if c.IsSet("log-level") {
		v.LogLevel = c.String("log-level")
	}
	return v, nil
}

func newDriver(v env.Config) (printer.Driver, error) {
	switch strings.ToLower(v.Transport) {
	case "ble", "bluetooth":
		return ble.New(ble.Config{NamePrefix: v.BLENamePrefix, ScanWindow: v.ScanWindow, ChunkSize: v.ChunkSize}), nil
	case "serial":
		return serial.New(v.SerialPorts, v.SerialBaud), nil
	case "catprinter":
		return catprinter.New(catprinter.Config{Name: v.CatPrinterName, ScanWindow: v.ScanWindow, AutoRotate: true}), nil
	case "preview":
		return preview.NewFile(v.PreviewPath, v.PreviewScale), nil
	}
	return nil, fmt.Errorf("unknown transport %q", v.Transport)
}

func newLabelPrinter(c *cli.Context, v env.Config) (*label.Printer, error) {
	st := styleFromEnv(v)
	if path := c.String("style"); path != "" {
		s, err := loadStylesheet(path, st)
		if err != nil {
			return nil, fmt.Errorf("error loading style sheet: %w", err)
		}
		st = s
	}

	r, err := st.renderer()
	if err != nil {
		return nil, err
	}
	driver, err := newDriver(v)
	if err != nil {
		return nil, err
	}
	return &label.Printer{Renderer: r, Driver: driver, Dump: c.String("dump")}, nil
}

func run(c *cli.Context) error {
	v, err := config(c)
	if err != nil {
		return err
	}
	if err := logger.Init(v.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer logger.Sync()

	p, err := newLabelPrinter(c, v)
	if err != nil {
		return err
	}

	if c.IsSet("serve") {
		return serve(v.ListenAddr, p, v.PreviewScale)
	}

	mode, err := label.ParseMode(c.String("type"))
	if err != nil {
		return err
	}
	content := c.Args().First()
	if content == "" {
		content = defaultContent
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Printing label", zap.String("mode", string(mode)), zap.String("transport", v.Transport))
	if err := p.Print(ctx, content, mode); err != nil {
		return err
	}
	logger.Info("Label printed")
	return nil
}
