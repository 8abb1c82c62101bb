//go:build linux && !(rp2040 || rp2350)

// bme280ctl reads a BME280 over a Linux I²C adapter and prints the
// compensated values. Useful for bring-up and for checking wiring before
// deploying the full service stack.
//
//	bme280ctl -bus 1 -addr 0x76
//	bme280ctl -bus 1 -watch 2s
//	bme280ctl -bus 1 -backend embd
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	logger "github.com/d2r2/go-logger"
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"tinygo.org/x/drivers"

	"envcode-go/drivers/bme280"
	"envcode-go/x/i2cshim"
)

var lg = logger.NewPackageLogger("bme280ctl",
	logger.InfoLevel,
)

func main() {
	defer logger.FinalizeLogger()

	busNr := flag.Int("bus", 1, "I2C bus number (/dev/i2c-N)")
	addrStr := flag.String("addr", "0x76", "device address")
	watch := flag.Duration("watch", 0, "repeat at this interval (0 = read once)")
	backend := flag.String("backend", "d2r2", `I2C backend: "d2r2" or "embd"`)
	flag.Parse()

	addr64, err := strconv.ParseUint(*addrStr, 0, 8)
	if err != nil {
		lg.Fatalf("bad -addr %q: %v", *addrStr, err)
	}
	addr := uint16(addr64)

	var i2c drivers.I2C
	switch *backend {
	case "d2r2":
		shim, err := i2cshim.OpenD2R2(addr, *busNr)
		if err != nil {
			lg.Fatal(err)
		}
		defer shim.Close()
		i2c = shim
	case "embd":
		eb := embd.NewI2CBus(byte(*busNr))
		defer eb.Close()
		i2c = i2cshim.NewEmbd(eb)
	default:
		lg.Fatalf("unknown -backend %q", *backend)
	}

	// Uncomment to surface raw bus transactions.
	// logger.ChangePackageLogLevel("i2c", logger.DebugLevel)

	d := bme280.New(i2c)
	if err := d.Configure(bme280.Config{Address: addr}); err != nil {
		lg.Fatal(err)
	}
	defer d.Close()

	for {
		rd, err := d.Read()
		if err != nil {
			lg.Error(err)
			os.Exit(1)
		}
		t := d.Temperature(rd)
		p := d.Pressure(rd)
		h := d.Humidity(rd)

		fmt.Printf("T = %d.%02d degC  RH = %d.%03d %%  P = %d.%02d hPa\n",
			t/100, abs(int(t%100)),
			h/1024, (h%1024)*1000/1024,
			p/25600, (p%25600)*100/25600,
		)

		if *watch <= 0 {
			return
		}
		time.Sleep(*watch)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
