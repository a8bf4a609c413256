package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/geNAZt/zoneheat/pkg/meter"
	"github.com/geNAZt/zoneheat/pkg/modbusclient"
	"github.com/goburrow/modbus"
)

var decimals = flag.Int("decimals", 2, "")
var readCount = flag.Uint("read-count", 1, "how many addresses to read")

// Commissioning tool for energy meters. With -model it reads a full value set
// the way the daemon does, otherwise it pokes raw registers.
func main() {
	address := flag.String("addr", "", "tcp modbus address")
	slaveID := flag.Int("slave", 0, "modbus slave id")
	model := flag.String("model", "", "read a full value set for this meter model")
	id := flag.String("id", "meter", "meter id used in the output")

	inputreg := flag.Int("inputreg", 0, "input reg")
	holdingreg := flag.Int("holdingreg", 0, "")
	value := flag.Int("value", 0, "value to write. will write any value")
	flag.Parse()

	if *model != "" {
		source := meter.NewModbus(*address, byte(*slaveID))
		data, err := source.ReadValues(*model, *id)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("total: %.0f Wh power: %.1f W\n", data.Total_WH, data.Current_W)
		for phase, amps := range data.PhaseAmps() {
			fmt.Printf("%s: %.3f A\n", phase, amps)
		}
		return
	}

	handler := modbus.NewTCPClientHandler(*address)
	handler.SlaveId = byte(*slaveID)
	mcli := modbus.NewClient(handler)
	client := &Client{client: mcli}

	var f interface{}
	var err error
	if isFlagPassed("inputreg") {
		f, err = scaleItof(client.readInputRegister(uint16(*inputreg)))
	}
	if isFlagPassed("holdingreg") {
		if isFlagPassed("value") {
			f, err = client.client.WriteSingleRegister(uint16(*holdingreg), uint16(*value))
		} else {
			f, err = scaleItof(client.readHoldingRegister(uint16(*holdingreg)))
		}
	}

	if err != nil {
		log.Println("error was: ", err)
	}
	if v, ok := f.([]byte); ok {
		fmt.Printf("raw response: %# x (length: %d)\n", v, len(v))
	}
	log.Println("value is: ", f)
	handler.Close()
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func intPow(base, exp int) float64 {
	result := 1
	for {
		if exp&1 == 1 {
			result *= base
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		base *= base
	}

	return float64(result)
}

func scaleItof(i int, err error) (float64, error) {
	f := float64(i) / intPow(10, *decimals)
	return f, err
}

type Client struct {
	client modbus.Client
}

func (ts *Client) readInputRegister(address uint16) (int, error) {
	b, err := ts.client.ReadInputRegisters(address, uint16(*readCount))
	fmt.Printf("raw response: %# x (length: %d)\n", b, len(b))
	return modbusclient.Decode(b), err
}

func (ts *Client) readHoldingRegister(address uint16) (int, error) {
	b, err := ts.client.ReadHoldingRegisters(address, uint16(*readCount))
	fmt.Printf("raw response: %# x (length: %d)\n", b, len(b))
	return modbusclient.Decode(b), err
}
